// Package session ведет одну тренировочную сессию: выбирает вопросы,
// проводит кандидата через раунды, отдает ответы на оценку и передает
// итог в архив.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"mock-interview/internal/capture"
	"mock-interview/internal/interview"
	"mock-interview/internal/metrics"
	"mock-interview/internal/storage"
)

const (
	// SkipTranscription: расшифровка пропущенного раунда
	SkipTranscription = "Skipped"
	// SkipFeedback: отзыв для пропущенного раунда
	SkipFeedback = "This question was skipped."
)

// Evaluator оценивает ответ и никогда не возвращает ошибку;
// *gateway.Gateway реализует этот интерфейс.
type Evaluator interface {
	EvaluateAnswer(ctx context.Context, answer interview.AnswerPayload, questionText string, secondary bool) interview.Evaluation
}

// Outcome: итог сессии, доставляется через Done ровно один раз
type Outcome struct {
	Kind OutcomeKind
	// Session: сохраненная сессия; nil для OutcomeCancelled
	Session *interview.Session
	Rounds  []interview.RoundResult
	// Err: ошибка сохранения в архив
	Err error
}

// View: снимок состояния для отображения
type View struct {
	State   State
	Index   int
	Round   interview.Round
	Results []interview.RoundResult
}

// Controller: конечный автомат одной сессии. Методы безопасны для вызова
// из разных горутин; Exit во время оценки откладывается до записи результата.
type Controller struct {
	pool      []interview.Question
	capture   capture.AnswerCapture
	evaluator Evaluator
	store     storage.HistoryStore

	perm    func(n int) []int
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu            sync.Mutex
	state         State
	rounds        []interview.Round
	index         int
	results       []interview.RoundResult
	handle        *capture.Handle
	exitRequested bool

	done chan Outcome
}

// New создает контроллер в состоянии READY. store может быть nil:
// тогда итог только доставляется через Done.
func New(pool []interview.Question, answers capture.AnswerCapture, evaluator Evaluator, store storage.HistoryStore, opts ...Option) *Controller {
	if answers == nil {
		answers = capture.TextOnly{}
	}
	c := &Controller{
		pool:      append([]interview.Question(nil), pool...),
		capture:   answers,
		evaluator: evaluator,
		store:     store,
		perm:      rand.Perm,
		now:       time.Now,
		logger:    slog.Default(),
		state:     StateReady,
		done:      make(chan Outcome, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "session")
	return c
}

// Done закрывается после доставки единственного Outcome
func (c *Controller) Done() <-chan Outcome {
	return c.done
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Rounds возвращает выбранные вопросы (пусто до Start)
func (c *Controller) Rounds() []interview.Round {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]interview.Round(nil), c.rounds...)
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{State: c.state, Index: c.index, Results: c.copyResults()}
	if len(c.rounds) > 0 && !c.state.Terminal() {
		v.Round = c.rounds[c.index]
	}
	return v
}

// Start выбирает три разных вопроса; последний раунд всегда на втором языке
func (c *Controller) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return invalidTransition("start", c.state)
	}

	unique := uniqueQuestions(c.pool)
	if len(unique) < interview.RoundsPerSession {
		return fmt.Errorf("%w: need %d unique questions, have %d",
			ErrInsufficientQuestionPool, interview.RoundsPerSession, len(unique))
	}

	order := c.perm(len(unique))
	rounds := make([]interview.Round, interview.RoundsPerSession)
	for i := range rounds {
		rounds[i] = interview.Round{
			Question:          unique[order[i]],
			SecondaryLanguage: i == interview.SecondaryRoundIndex,
		}
	}

	c.rounds = rounds
	c.index = 0
	c.state = StateQuestion
	c.metrics.IncrementSessionsStarted()
	c.logger.Info("session started", "pool", len(unique), "first_question", rounds[0].Question.ID)
	return nil
}

// BeginRecording открывает устройство записи. При ошибке сессия остается
// в QUESTION, чтобы можно было ответить текстом.
func (c *Controller) BeginRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateQuestion {
		return invalidTransition("begin recording", c.state)
	}

	h, err := c.capture.BeginAudioCapture(ctx)
	if err != nil {
		c.logger.Warn("capture unavailable", "round", c.index, "error", err)
		return err
	}
	c.handle = &h
	c.state = StateRecording
	return nil
}

// BeginText переводит раунд в ожидание текстового ответа
func (c *Controller) BeginText() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateQuestion {
		return invalidTransition("begin text", c.state)
	}
	c.state = StateAwaitingText
	return nil
}

// SubmitText отправляет текстовый ответ на оценку и ждет результата.
// Пустой ответ отклоняется, состояние не меняется.
func (c *Controller) SubmitText(ctx context.Context, text string) (interview.RoundResult, error) {
	c.mu.Lock()
	if c.state != StateAwaitingText {
		state := c.state
		c.mu.Unlock()
		return interview.RoundResult{}, invalidTransition("submit text", state)
	}
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return interview.RoundResult{}, ErrEmptyAnswer
	}
	payload := c.capture.SubmitText(text)
	index, round := c.beginProcessingLocked()
	c.mu.Unlock()

	return c.process(ctx, index, round, payload)
}

// StopRecording закрывает запись и отправляет ее на оценку. Устройство
// освобождается в любом случае; если запись не удалась, раунд возвращается в QUESTION.
func (c *Controller) StopRecording(ctx context.Context) (interview.RoundResult, error) {
	c.mu.Lock()
	if c.state != StateRecording {
		state := c.state
		c.mu.Unlock()
		return interview.RoundResult{}, invalidTransition("stop recording", state)
	}

	h := *c.handle
	c.handle = nil
	payload, err := c.capture.EndAudioCapture(ctx, h)
	if err != nil {
		c.state = StateQuestion
		c.mu.Unlock()
		return interview.RoundResult{}, fmt.Errorf("stop recording: %w", err)
	}
	index, round := c.beginProcessingLocked()
	c.mu.Unlock()

	return c.process(ctx, index, round, payload)
}

// Skip завершает текущий раунд без оценки
func (c *Controller) Skip(ctx context.Context) (interview.RoundResult, error) {
	c.mu.Lock()
	if !c.state.canSkip() {
		state := c.state
		c.mu.Unlock()
		return interview.RoundResult{}, invalidTransition("skip", state)
	}
	if c.state == StateRecording {
		c.releaseCaptureLocked(ctx)
	}

	round := c.rounds[c.index]
	result := interview.RoundResult{
		Index:             c.index,
		QuestionID:        round.Question.ID,
		QuestionText:      round.Text(),
		SecondaryLanguage: round.SecondaryLanguage,
		Transcription:     SkipTranscription,
		Feedback:          SkipFeedback,
		Skipped:           true,
	}
	out := c.recordLocked(result)
	c.mu.Unlock()

	c.metrics.IncrementRoundsSkipped()
	return result, c.finish(ctx, out)
}

// Exit завершает сессию досрочно. Во время оценки выход откладывается
// до записи результата текущего раунда.
func (c *Controller) Exit(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Terminal() {
		state := c.state
		c.mu.Unlock()
		return invalidTransition("exit", state)
	}
	if c.state == StateProcessing {
		c.exitRequested = true
		index := c.index
		c.mu.Unlock()
		c.logger.Info("exit deferred until evaluation completes", "round", index)
		return nil
	}
	if c.state == StateRecording {
		c.releaseCaptureLocked(ctx)
	}

	c.state = StateEarlyExit
	out := c.finalizeLocked(c.earlyExitKindLocked())
	c.mu.Unlock()

	return c.finish(ctx, out)
}

func (c *Controller) beginProcessingLocked() (int, interview.Round) {
	c.state = StateProcessing
	return c.index, c.rounds[c.index]
}

// process вызывается без блокировки: оценка может идти долго
func (c *Controller) process(ctx context.Context, index int, round interview.Round, payload interview.AnswerPayload) (interview.RoundResult, error) {
	eval := c.evaluator.EvaluateAnswer(ctx, payload, round.Text(), round.SecondaryLanguage)

	result := interview.RoundResult{
		Index:             index,
		QuestionID:        round.Question.ID,
		QuestionText:      round.Text(),
		SecondaryLanguage: round.SecondaryLanguage,
		Transcription:     eval.Transcription,
		Feedback:          eval.Feedback,
		Fallback:          eval.Fallback,
	}
	if data, mime, ok := payload.Audio(); ok {
		result.AudioArtifact = data
		result.AudioMimeType = mime
	}
	if text, ok := payload.Text(); ok {
		result.TextArtifact = text
	}
	c.metrics.IncrementRoundsEvaluated()

	c.mu.Lock()
	out := c.recordLocked(result)
	c.mu.Unlock()

	return result, c.finish(ctx, out)
}

// recordLocked добавляет результат и переходит к следующему раунду или к итогу
func (c *Controller) recordLocked(result interview.RoundResult) *Outcome {
	c.results = append(c.results, result)
	c.logger.Debug("round finalized", "round", result.Index, "skipped", result.Skipped, "fallback", result.Fallback)

	if result.Index >= len(c.rounds)-1 {
		c.state = StateDone
		return c.finalizeLocked(OutcomeCompleted)
	}
	if c.exitRequested {
		c.state = StateEarlyExit
		return c.finalizeLocked(c.earlyExitKindLocked())
	}
	c.index++
	c.state = StateQuestion
	return nil
}

func (c *Controller) earlyExitKindLocked() OutcomeKind {
	if len(c.results) == 0 {
		return OutcomeCancelled
	}
	return OutcomeEndedEarly
}

func (c *Controller) finalizeLocked(kind OutcomeKind) *Outcome {
	out := &Outcome{Kind: kind, Rounds: c.copyResults()}
	if kind != OutcomeCancelled {
		out.Session = &interview.Session{
			ID:        uuid.New().String(),
			CreatedAt: c.now(),
			Rounds:    c.copyResults(),
		}
	}
	return out
}

// finish сохраняет сессию и доставляет итог; nil означает, что сессия продолжается
func (c *Controller) finish(ctx context.Context, out *Outcome) error {
	if out == nil {
		return nil
	}

	switch out.Kind {
	case OutcomeCompleted:
		c.metrics.IncrementSessionsCompleted()
	case OutcomeEndedEarly:
		c.metrics.IncrementSessionsEndedEarly()
	case OutcomeCancelled:
		c.metrics.IncrementSessionsCancelled()
	}

	if out.Session != nil && c.store != nil {
		if err := c.store.Save(context.WithoutCancel(ctx), out.Session); err != nil {
			out.Err = fmt.Errorf("save session %s: %w", out.Session.ID, err)
			c.logger.Error("failed to save session", "session_id", out.Session.ID, "error", err)
		}
	}

	c.logger.Info("session finished", "outcome", out.Kind, "rounds", len(out.Rounds))
	c.done <- *out
	close(c.done)
	return out.Err
}

func (c *Controller) releaseCaptureLocked(ctx context.Context) {
	if c.handle == nil {
		return
	}
	h := *c.handle
	c.handle = nil
	if _, err := c.capture.EndAudioCapture(ctx, h); err != nil {
		c.logger.Warn("failed to release capture", "handle", h.ID, "error", err)
	}
}

func (c *Controller) copyResults() []interview.RoundResult {
	if len(c.results) == 0 {
		return nil
	}
	var out []interview.RoundResult
	if err := copier.CopyWithOption(&out, &c.results, copier.Option{DeepCopy: true}); err != nil {
		c.logger.Warn("deep copy of results failed", "error", err)
		return append([]interview.RoundResult(nil), c.results...)
	}
	return out
}

// uniqueQuestions убирает повторы по ID, сохраняя первое вхождение
func uniqueQuestions(pool []interview.Question) []interview.Question {
	seen := make(map[string]struct{}, len(pool))
	unique := make([]interview.Question, 0, len(pool))
	for _, q := range pool {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		seen[q.ID] = struct{}{}
		unique = append(unique, q)
	}
	return unique
}
