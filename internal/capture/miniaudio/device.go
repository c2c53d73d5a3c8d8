// Package miniaudio дает микрофон через malgo (miniaudio): 16-битный моно PCM.
package miniaudio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"mock-interview/internal/audio"
)

// backend: часть *malgo.Device, которой пользуется Device
type backend interface {
	Start() error
	Stop() error
	IsStarted() bool
	Uninit()
}

// Device реализует capture.Device поверх устройства записи по умолчанию
type Device struct {
	audioContext  *malgo.AllocatedContext
	device        backend
	sampleRate    uint32
	bytesPerFrame int

	// читается из потока устройства без блокировки: malgo Stop ждет,
	// пока callback вернется
	onAudio atomic.Pointer[func(pcm []byte)]

	// mu упорядочивает Start, Stop и Close
	mu sync.Mutex
}

// Open инициализирует контекст и устройство записи; sampleRate <= 0 означает
// audio.DefaultCaptureSampleRate. Вызывающий обязан вызвать Close.
func Open(sampleRate int) (*Device, error) {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultCaptureSampleRate
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	d := &Device{audioContext: audioCtx, sampleRate: uint32(sampleRate)}
	if err := d.init(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Device) init() error {
	channels := 1
	format := malgo.FormatS16
	d.bytesPerFrame = malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = d.sampleRate
	config.Capture.Format = format
	config.Capture.Channels = uint32(channels)
	config.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(d.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			d.deliver(pInput, frameCount)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}
	d.device = device
	return nil
}

// deliver вызывается из потока устройства и не берет d.mu
func (d *Device) deliver(pInput []byte, frameCount uint32) {
	n := int(frameCount) * d.bytesPerFrame
	if len(pInput) < n || n == 0 {
		return
	}
	if onAudio := d.onAudio.Load(); onAudio != nil {
		// буфер malgo переиспользуется после возврата из callback
		(*onAudio)(append([]byte(nil), pInput[:n]...))
	}
}

func (d *Device) Start(onAudio func(pcm []byte)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return fmt.Errorf("device not initialized")
	} else if d.device.IsStarted() {
		return fmt.Errorf("device already started")
	}

	d.onAudio.Store(&onAudio)
	if err := d.device.Start(); err != nil {
		d.onAudio.Store(nil)
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onAudio.Store(nil)
	if d.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !d.device.IsStarted() {
		return nil
	}

	if err := d.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}
	return nil
}

// Close освобождает устройство и контекст
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device != nil {
		d.device.Uninit()
		d.device = nil
	}
	d.onAudio.Store(nil)
	if d.audioContext != nil {
		_ = d.audioContext.Uninit()
		d.audioContext.Free()
		d.audioContext = nil
	}
}
