package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mock-interview/internal/capture"
	"mock-interview/internal/interview"
	"mock-interview/internal/metrics"
)

type evalCall struct {
	kind      interview.AnswerKind
	question  string
	secondary bool
}

type fakeEvaluator struct {
	mu    sync.Mutex
	calls []evalCall

	// started и release позволяют удержать оценку в PROCESSING
	started chan struct{}
	release chan struct{}
}

func (f *fakeEvaluator) EvaluateAnswer(_ context.Context, answer interview.AnswerPayload, questionText string, secondary bool) interview.Evaluation {
	f.mu.Lock()
	f.calls = append(f.calls, evalCall{kind: answer.Kind(), question: questionText, secondary: secondary})
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}

	if text, ok := answer.Text(); ok {
		return interview.Evaluation{Transcription: text, Feedback: "feedback: " + questionText}
	}
	return interview.Evaluation{Transcription: "transcribed audio", Feedback: "feedback: " + questionText}
}

func (f *fakeEvaluator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeCapture struct {
	mu       sync.Mutex
	beginErr error
	endErr   error
	open     bool
	begun    int
	ended    int
}

func (f *fakeCapture) BeginAudioCapture(context.Context) (capture.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beginErr != nil {
		return capture.Handle{}, f.beginErr
	}
	if f.open {
		return capture.Handle{}, capture.ErrCaptureInProgress
	}
	f.open = true
	f.begun++
	return capture.Handle{ID: fmt.Sprintf("h%d", f.begun), StartedAt: time.Now()}, nil
}

func (f *fakeCapture) EndAudioCapture(context.Context, capture.Handle) (interview.AnswerPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.ended++
	if f.endErr != nil {
		return interview.AnswerPayload{}, f.endErr
	}
	return interview.AudioAnswer([]byte("RIFF-fake"), "audio/wav"), nil
}

func (f *fakeCapture) SubmitText(text string) interview.AnswerPayload {
	return interview.TextAnswer(text)
}

type fakeStore struct {
	mu    sync.Mutex
	saved []*interview.Session
	err   error
}

func (f *fakeStore) Save(_ context.Context, s *interview.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func questionPool(n int) []interview.Question {
	pool := make([]interview.Question, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, interview.Question{
			ID:              fmt.Sprintf("q%d", i),
			Category:        interview.Categories()[i%len(interview.Categories())],
			Prompt:          fmt.Sprintf("질문 %d", i),
			SecondaryPrompt: fmt.Sprintf("Question %d", i),
		})
	}
	return pool
}

type fixture struct {
	ctrl    *Controller
	eval    *fakeEvaluator
	capture *fakeCapture
	store   *fakeStore
	metrics *metrics.Metrics
}

func newFixture(pool []interview.Question, seed uint64) *fixture {
	f := &fixture{
		eval:    &fakeEvaluator{},
		capture: &fakeCapture{},
		store:   &fakeStore{},
		metrics: metrics.NewMetrics(),
	}
	f.ctrl = New(pool, f.capture, f.eval, f.store,
		WithRand(rand.New(rand.NewPCG(seed, seed+1))),
		WithClock(func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }),
		WithMetrics(f.metrics),
	)
	return f
}

func waitOutcome(t *testing.T, c *Controller) Outcome {
	t.Helper()
	select {
	case out := <-c.Done():
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("session outcome was not delivered")
		return Outcome{}
	}
}

func TestStart_InsufficientPool(t *testing.T) {
	pool := questionPool(2)
	pool = append(pool, pool[0], pool[1])

	f := newFixture(pool, 1)
	err := f.ctrl.Start(context.Background())

	assert.ErrorIs(t, err, ErrInsufficientQuestionPool)
	assert.Equal(t, StateReady, f.ctrl.State())
	assert.Empty(t, f.ctrl.Rounds())
}

func TestStart_SelectsDistinctQuestionsWithSecondaryLast(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		pool := questionPool(5)
		pool = append(pool, pool[0], pool[2])

		f := newFixture(pool, seed)
		require.NoError(t, f.ctrl.Start(context.Background()))

		rounds := f.ctrl.Rounds()
		require.Len(t, rounds, interview.RoundsPerSession)

		seen := map[string]bool{}
		for i, r := range rounds {
			assert.False(t, seen[r.Question.ID], "seed %d: question %s repeated", seed, r.Question.ID)
			seen[r.Question.ID] = true
			assert.Equal(t, i == interview.SecondaryRoundIndex, r.SecondaryLanguage)
		}
		assert.Equal(t, StateQuestion, f.ctrl.State())
	}
}

func TestStart_Twice(t *testing.T) {
	f := newFixture(questionPool(3), 1)
	require.NoError(t, f.ctrl.Start(context.Background()))
	assert.ErrorIs(t, f.ctrl.Start(context.Background()), ErrInvalidTransition)
}

func TestSession_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(questionPool(5), 7)
	require.NoError(t, f.ctrl.Start(ctx))
	rounds := f.ctrl.Rounds()

	// раунд 0: текст
	require.NoError(t, f.ctrl.BeginText())
	assert.Equal(t, StateAwaitingText, f.ctrl.State())
	r0, err := f.ctrl.SubmitText(ctx, "I led a team of 4 engineers")
	require.NoError(t, err)
	assert.Equal(t, "I led a team of 4 engineers", r0.Transcription)
	assert.Equal(t, "I led a team of 4 engineers", r0.TextArtifact)
	assert.Equal(t, StateQuestion, f.ctrl.State())

	// раунд 1: пропуск
	r1, err := f.ctrl.Skip(ctx)
	require.NoError(t, err)
	assert.True(t, r1.Skipped)
	assert.Equal(t, SkipTranscription, r1.Transcription)

	// раунд 2: аудио на втором языке
	require.NoError(t, f.ctrl.BeginRecording(ctx))
	assert.Equal(t, StateRecording, f.ctrl.State())
	r2, err := f.ctrl.StopRecording(ctx)
	require.NoError(t, err)
	assert.True(t, r2.SecondaryLanguage)
	assert.Equal(t, "transcribed audio", r2.Transcription)
	assert.Equal(t, []byte("RIFF-fake"), r2.AudioArtifact)
	assert.Equal(t, rounds[2].Question.SecondaryPrompt, r2.QuestionText)

	assert.Equal(t, StateDone, f.ctrl.State())

	out := waitOutcome(t, f.ctrl)
	assert.Equal(t, OutcomeCompleted, out.Kind)
	require.NotNil(t, out.Session)
	require.Len(t, out.Session.Rounds, 3)
	assert.True(t, out.Session.Rounds[1].Skipped)
	assert.True(t, out.Session.Rounds[2].SecondaryLanguage)
	assert.True(t, out.Session.Completed())
	for i, r := range out.Session.Rounds {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, rounds[i].Question.ID, r.QuestionID)
	}
	assert.NotEmpty(t, out.Session.ID)
	assert.Equal(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), out.Session.CreatedAt)

	require.Equal(t, 2, f.eval.callCount())
	assert.False(t, f.eval.calls[0].secondary)
	assert.Equal(t, interview.AnswerText, f.eval.calls[0].kind)
	assert.True(t, f.eval.calls[1].secondary)
	assert.Equal(t, interview.AnswerAudio, f.eval.calls[1].kind)

	assert.Equal(t, 1, f.store.count())
	assert.Same(t, out.Session, f.store.saved[0])

	snap := f.metrics.GetSnapshot()
	assert.Equal(t, int64(1), snap.SessionsStarted)
	assert.Equal(t, int64(1), snap.SessionsCompleted)
	assert.Equal(t, int64(2), snap.RoundsEvaluated)
	assert.Equal(t, int64(1), snap.RoundsSkipped)
}

func TestSkip_NeverEvaluates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(questionPool(3), 3)
	require.NoError(t, f.ctrl.Start(ctx))

	for i := 0; i < interview.RoundsPerSession; i++ {
		r, err := f.ctrl.Skip(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, r.Index)
		assert.Equal(t, SkipFeedback, r.Feedback)
	}

	assert.Equal(t, StateDone, f.ctrl.State())
	assert.Zero(t, f.eval.callCount())

	out := waitOutcome(t, f.ctrl)
	assert.Equal(t, OutcomeCompleted, out.Kind)
	assert.Equal(t, 0, out.Session.Answered())

	_, err := f.ctrl.Skip(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSkip_WhileRecordingReleasesCapture(t *testing.T) {
	ctx := context.Background()
	f := newFixture(questionPool(3), 3)
	require.NoError(t, f.ctrl.Start(ctx))
	require.NoError(t, f.ctrl.BeginRecording(ctx))

	_, err := f.ctrl.Skip(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.capture.ended)
	assert.False(t, f.capture.open)

	// следующий раунд снова может захватить устройство
	require.NoError(t, f.ctrl.BeginRecording(ctx))
}

func TestSubmitText_EmptyRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(questionPool(3), 1)
	require.NoError(t, f.ctrl.Start(ctx))
	require.NoError(t, f.ctrl.BeginText())

	_, err := f.ctrl.SubmitText(ctx, "   \n\t")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
	assert.Equal(t, StateAwaitingText, f.ctrl.State())
	assert.Zero(t, f.eval.callCount())
}

func TestBeginRecording_DeviceUnavailableStaysInQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(questionPool(3), 1)
	f.capture.beginErr = fmt.Errorf("%w: permission denied", capture.ErrDeviceUnavailable)
	require.NoError(t, f.ctrl.Start(ctx))

	err := f.ctrl.BeginRecording(ctx)
	assert.ErrorIs(t, err, capture.ErrDeviceUnavailable)
	assert.Equal(t, StateQuestion, f.ctrl.State())

	require.NoError(t, f.ctrl.BeginText())
	_, err = f.ctrl.SubmitText(ctx, "typed instead")
	assert.NoError(t, err)
}

func TestStopRecording_CaptureFailureReturnsToQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(questionPool(3), 1)
	f.capture.endErr = capture.ErrNoAudio
	require.NoError(t, f.ctrl.Start(ctx))
	require.NoError(t, f.ctrl.BeginRecording(ctx))

	_, err := f.ctrl.StopRecording(ctx)
	assert.ErrorIs(t, err, capture.ErrNoAudio)
	assert.Equal(t, StateQuestion, f.ctrl.State())
	assert.False(t, f.capture.open)
	assert.Empty(t, f.ctrl.View().Results)
}

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(questionPool(3), 1)

	assert.ErrorIs(t, f.ctrl.BeginText(), ErrInvalidTransition)
	_, err := f.ctrl.Skip(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, f.ctrl.Start(ctx))
	_, err = f.ctrl.SubmitText(ctx, "answer")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.ctrl.StopRecording(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, f.ctrl.BeginText())
	assert.ErrorIs(t, f.ctrl.BeginRecording(ctx), ErrInvalidTransition)
}

func TestExit_FromReadyCancels(t *testing.T) {
	f := newFixture(questionPool(3), 1)
	require.NoError(t, f.ctrl.Exit(context.Background()))

	out := waitOutcome(t, f.ctrl)
	assert.Equal(t, OutcomeCancelled, out.Kind)
	assert.Nil(t, out.Session)
	assert.Equal(t, StateEarlyExit, f.ctrl.State())
	assert.Zero(t, f.store.count())
}

func TestExit_WithoutFinalizedRoundsCancels(t *testing.T) {
	ctx := context.Background()
	f := newFixture(questionPool(3), 1)
	require.NoError(t, f.ctrl.Start(ctx))
	require.NoError(t, f.ctrl.BeginRecording(ctx))

	require.NoError(t, f.ctrl.Exit(ctx))

	out := waitOutcome(t, f.ctrl)
	assert.Equal(t, OutcomeCancelled, out.Kind)
	assert.Nil(t, out.Session)
	assert.Zero(t, f.store.count())
	assert.False(t, f.capture.open)
	assert.Equal(t, int64(1), f.metrics.GetSnapshot().SessionsCancelled)

	assert.ErrorIs(t, f.ctrl.Exit(ctx), ErrInvalidTransition)
}

func TestExit_AfterOneRoundSavesShortSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(questionPool(4), 2)
	require.NoError(t, f.ctrl.Start(ctx))
	require.NoError(t, f.ctrl.BeginText())
	_, err := f.ctrl.SubmitText(ctx, "first answer")
	require.NoError(t, err)

	require.NoError(t, f.ctrl.Exit(ctx))

	out := waitOutcome(t, f.ctrl)
	assert.Equal(t, OutcomeEndedEarly, out.Kind)
	require.NotNil(t, out.Session)
	require.Len(t, out.Session.Rounds, 1)
	assert.Equal(t, "first answer", out.Session.Rounds[0].Transcription)
	assert.Equal(t, 1, f.store.count())
}

func TestExit_DuringProcessingIsDeferred(t *testing.T) {
	ctx := context.Background()
	f := newFixture(questionPool(3), 5)
	f.eval.started = make(chan struct{}, 1)
	f.eval.release = make(chan struct{})
	require.NoError(t, f.ctrl.Start(ctx))
	require.NoError(t, f.ctrl.BeginText())

	type submitted struct {
		result interview.RoundResult
		err    error
	}
	resultCh := make(chan submitted, 1)
	go func() {
		r, err := f.ctrl.SubmitText(ctx, "slow answer")
		resultCh <- submitted{r, err}
	}()

	<-f.eval.started
	assert.Equal(t, StateProcessing, f.ctrl.State())

	require.NoError(t, f.ctrl.Exit(ctx))
	assert.Equal(t, StateProcessing, f.ctrl.State())
	select {
	case <-f.ctrl.Done():
		t.Fatal("exit must wait for the in-flight evaluation")
	default:
	}

	close(f.eval.release)
	res := <-resultCh
	require.NoError(t, res.err)
	assert.Equal(t, "slow answer", res.result.Transcription)

	out := waitOutcome(t, f.ctrl)
	assert.Equal(t, OutcomeEndedEarly, out.Kind)
	require.Len(t, out.Session.Rounds, 1)
	assert.Equal(t, "slow answer", out.Session.Rounds[0].Transcription)
	assert.Equal(t, StateEarlyExit, f.ctrl.State())
}

func TestExit_DeferredOnLastRoundCompletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(questionPool(3), 5)
	require.NoError(t, f.ctrl.Start(ctx))
	_, err := f.ctrl.Skip(ctx)
	require.NoError(t, err)
	_, err = f.ctrl.Skip(ctx)
	require.NoError(t, err)

	f.eval.started = make(chan struct{}, 1)
	f.eval.release = make(chan struct{})
	require.NoError(t, f.ctrl.BeginText())

	errCh := make(chan error, 1)
	go func() {
		_, err := f.ctrl.SubmitText(ctx, "last answer")
		errCh <- err
	}()
	<-f.eval.started
	require.NoError(t, f.ctrl.Exit(ctx))
	close(f.eval.release)
	require.NoError(t, <-errCh)

	out := waitOutcome(t, f.ctrl)
	assert.Equal(t, OutcomeCompleted, out.Kind)
	assert.Len(t, out.Session.Rounds, 3)
	assert.Equal(t, StateDone, f.ctrl.State())
}

func TestStoreFailureIsReported(t *testing.T) {
	ctx := context.Background()
	f := newFixture(questionPool(3), 1)
	f.store.err = errors.New("disk full")
	require.NoError(t, f.ctrl.Start(ctx))

	_, err := f.ctrl.Skip(ctx)
	require.NoError(t, err)
	_, err = f.ctrl.Skip(ctx)
	require.NoError(t, err)
	_, err = f.ctrl.Skip(ctx)
	require.Error(t, err)

	out := waitOutcome(t, f.ctrl)
	assert.Equal(t, OutcomeCompleted, out.Kind)
	assert.ErrorContains(t, out.Err, "disk full")
	assert.NotNil(t, out.Session)
}

func TestResultsAreIsolatedFromCaller(t *testing.T) {
	ctx := context.Background()
	f := newFixture(questionPool(3), 1)
	require.NoError(t, f.ctrl.Start(ctx))
	_, err := f.ctrl.Skip(ctx)
	require.NoError(t, err)

	view := f.ctrl.View()
	require.Len(t, view.Results, 1)
	view.Results[0].Feedback = "tampered"

	assert.Equal(t, SkipFeedback, f.ctrl.View().Results[0].Feedback)
	assert.Equal(t, 1, f.ctrl.View().Index)
}

func TestIndependentControllersRunConcurrently(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			ctrl := New(questionPool(5), &fakeCapture{}, &fakeEvaluator{}, store, WithRand(rand.New(rand.NewPCG(seed, seed))))
			if err := ctrl.Start(ctx); err != nil {
				t.Error(err)
				return
			}
			for round := 0; round < interview.RoundsPerSession; round++ {
				if err := ctrl.BeginText(); err != nil {
					t.Error(err)
					return
				}
				if _, err := ctrl.SubmitText(ctx, fmt.Sprintf("answer %d", round)); err != nil {
					t.Error(err)
					return
				}
			}
			out := <-ctrl.Done()
			assert.Equal(t, OutcomeCompleted, out.Kind)
		}(uint64(i))
	}
	wg.Wait()

	assert.Equal(t, 8, store.count())
}
