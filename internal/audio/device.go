// Package audio implements the voice device contract on PortAudio.
package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"talkline/internal/ports"
)

// Config describes capture and playback stream parameters.
type Config struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

// Device owns the microphone and speaker through PortAudio. The capture
// device belongs to at most one turn at a time; EndCapture and
// CancelCapture always release it, including on error.
type Device struct {
	cfg Config

	mu       sync.Mutex
	muted    bool
	stream   *portaudio.Stream
	buffer   []int16
	captured []int16
	stop     chan struct{}
	done     chan struct{}
}

// Init prepares the PortAudio runtime. Call once at startup.
func Init() error {
	return portaudio.Initialize()
}

// Shutdown releases the PortAudio runtime.
func Shutdown() {
	_ = portaudio.Terminate()
}

func NewDevice(cfg Config) *Device {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.FramesPerBuffer < 64 {
		cfg.FramesPerBuffer = 1024
	}
	return &Device{cfg: cfg}
}

// Supported reports whether default capture and playback devices exist.
func (d *Device) Supported() bool {
	in, err := portaudio.DefaultInputDevice()
	if err != nil || in == nil {
		return false
	}
	out, err := portaudio.DefaultOutputDevice()
	return err == nil && out != nil
}

// BeginCapture opens the default input stream and starts accumulating
// samples until EndCapture or CancelCapture.
func (d *Device) BeginCapture(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream != nil {
		return fmt.Errorf("capture already in progress")
	}

	buffer := make([]int16, d.cfg.FramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(d.cfg.Channels, 0, float64(d.cfg.SampleRate), len(buffer), &buffer)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrPermissionDenied, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("%w: %v", ports.ErrPermissionDenied, err)
	}

	d.stream = stream
	d.buffer = buffer
	d.captured = d.captured[:0]
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	go d.captureLoop(stream, d.stop, d.done)
	return nil
}

func (d *Device) captureLoop(stream *portaudio.Stream, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			return
		}

		d.mu.Lock()
		frame := make([]int16, len(d.buffer))
		if !d.muted {
			copy(frame, d.buffer)
		}
		d.captured = append(d.captured, frame...)
		d.mu.Unlock()
	}
}

// EndCapture stops the stream and returns the captured sample as linear16.
func (d *Device) EndCapture(ctx context.Context) ([]byte, error) {
	samples, err := d.release()
	if err != nil {
		return nil, err
	}
	return Int16ToBytes(samples), nil
}

// CancelCapture stops the stream and discards the partial sample.
func (d *Device) CancelCapture() error {
	_, err := d.release()
	return err
}

func (d *Device) release() ([]int16, error) {
	d.mu.Lock()
	stream := d.stream
	stop := d.stop
	done := d.done
	d.stream = nil
	d.stop = nil
	d.done = nil
	d.mu.Unlock()

	if stream == nil {
		return nil, ports.ErrNoActiveCapture
	}

	close(stop)
	_ = stream.Stop()
	<-done
	_ = stream.Close()

	d.mu.Lock()
	samples := d.captured
	d.captured = nil
	d.mu.Unlock()
	return samples, nil
}

// Play renders a linear16 sample to the default output and blocks until
// playback completes or the context is cancelled.
func (d *Device) Play(ctx context.Context, audio []byte) error {
	samples := BytesToInt16(audio)
	buffer := make([]int16, d.cfg.FramesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(0, d.cfg.Channels, float64(d.cfg.SampleRate), len(buffer), &buffer)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrPlayback, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("%w: %v", ports.ErrPlayback, err)
	}
	defer func() {
		_ = stream.Stop()
		_ = stream.Close()
	}()

	offset := 0
	for offset < len(samples) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(buffer, samples[offset:])
		for i := n; i < len(buffer); i++ {
			buffer[i] = 0
		}
		offset += n
		if err := stream.Write(); err != nil {
			return fmt.Errorf("%w: %v", ports.ErrPlayback, err)
		}
	}
	return nil
}

// SetMuted zeroes captured frames while leaving the capture stream open.
func (d *Device) SetMuted(muted bool) {
	d.mu.Lock()
	d.muted = muted
	d.mu.Unlock()
}
