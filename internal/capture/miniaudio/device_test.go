package miniaudio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend ведет себя как malgo: Stop не возвращается, пока поток
// устройства не закончит текущий период (duringStop).
type fakeBackend struct {
	started    bool
	startErr   error
	stopped    int
	uninit     bool
	duringStop func()
}

func (b *fakeBackend) Start() error {
	if b.startErr != nil {
		return b.startErr
	}
	b.started = true
	return nil
}

func (b *fakeBackend) Stop() error {
	if b.duringStop != nil {
		b.duringStop()
	}
	b.started = false
	b.stopped++
	return nil
}

func (b *fakeBackend) IsStarted() bool { return b.started }
func (b *fakeBackend) Uninit()         { b.uninit = true }

func newTestDevice(b *fakeBackend) *Device {
	return &Device{device: b, sampleRate: 16000, bytesPerFrame: 2}
}

func TestDevice_DeliversCopiesOfFullFrames(t *testing.T) {
	d := newTestDevice(&fakeBackend{})

	var got [][]byte
	require.NoError(t, d.Start(func(pcm []byte) { got = append(got, pcm) }))

	buf := []byte{1, 2, 3, 4, 5}
	d.deliver(buf, 2)
	d.deliver(buf, 0)
	d.deliver(buf[:1], 1)
	buf[0] = 9

	require.Len(t, got, 1)
	assert.Equal(t, []byte{1, 2, 3, 4}, got[0])
}

func TestDevice_StopDoesNotBlockInFlightPeriod(t *testing.T) {
	b := &fakeBackend{}
	d := newTestDevice(b)

	calls := 0
	require.NoError(t, d.Start(func([]byte) { calls++ }))

	// период, который поток устройства доставляет, пока Stop ждет его
	b.duringStop = func() {
		done := make(chan struct{})
		go func() {
			defer close(done)
			d.deliver([]byte{1, 2}, 1)
		}()
		<-done
	}

	stopped := make(chan error, 1)
	go func() { stopped <- d.Stop() }()

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while the device thread was delivering audio")
	}

	assert.Equal(t, 1, b.stopped)
	assert.Zero(t, calls, "callback is detached before the device stops")

	d.deliver([]byte{1, 2}, 1)
	assert.Zero(t, calls)
}

func TestDevice_StartErrors(t *testing.T) {
	d := newTestDevice(&fakeBackend{})
	require.NoError(t, d.Start(func([]byte) {}))
	assert.Error(t, d.Start(func([]byte) {}), "second start")
	require.NoError(t, d.Stop())
	require.NoError(t, d.Stop(), "stop of a stopped device is a no-op")

	failing := newTestDevice(&fakeBackend{startErr: errors.New("busy")})
	calls := 0
	assert.Error(t, failing.Start(func([]byte) { calls++ }))
	failing.deliver([]byte{1, 2}, 1)
	assert.Zero(t, calls)
}

func TestDevice_Close(t *testing.T) {
	b := &fakeBackend{}
	d := newTestDevice(b)
	d.Close()

	assert.True(t, b.uninit)
	assert.Error(t, d.Start(func([]byte) {}))
	assert.Error(t, d.Stop())
}
