// Package audiotest provides in-memory fetchers, devices and fixtures for
// testing code built on the audio package.
package audiotest

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"wrapbeep.click/internal/audio"
)

// WAV builds a 16-bit PCM WAV file. Samples are interleaved when channels > 1.
func WAV(channels, sampleRate int, samples ...int16) []byte {
	dataSize := len(samples) * 2
	out := make([]byte, 0, 44+dataSize)

	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(36+dataSize))
	out = append(out, "WAVE"...)

	out = append(out, "fmt "...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, 1) // PCM
	out = binary.LittleEndian.AppendUint16(out, uint16(channels))
	out = binary.LittleEndian.AppendUint32(out, uint32(sampleRate))
	out = binary.LittleEndian.AppendUint32(out, uint32(sampleRate*channels*2))
	out = binary.LittleEndian.AppendUint16(out, uint16(channels*2))
	out = binary.LittleEndian.AppendUint16(out, 16)

	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(dataSize))
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(s))
	}
	return out
}

// Beep returns a short stereo WAV clip.
func Beep() []byte {
	return WAV(2, 8000, 1000, -1000, 2000, -2000, 3000, -3000, 4000, -4000)
}

// Fetcher serves fixed payloads per path and counts calls. Paths without a
// payload fail with a *audio.ResourceFetchError.
type Fetcher struct {
	mu       sync.Mutex
	payloads map[string][]byte
	errs     map[string]error
	calls    map[string]int

	// Block, when set, is waited on by every Fetch before it returns.
	Block chan struct{}
	// Entered receives one value per Fetch call when set.
	Entered chan string
}

// NewFetcher creates an empty Fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		payloads: make(map[string][]byte),
		errs:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

// Serve makes path return data.
func (f *Fetcher) Serve(path string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[path] = data
	delete(f.errs, path)
}

// Fail makes path fail with err wrapped in a *audio.ResourceFetchError.
func (f *Fetcher) Fail(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[path] = err
	delete(f.payloads, path)
}

// Calls returns how often path was fetched.
func (f *Fetcher) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *Fetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	f.calls[path]++
	data, ok := f.payloads[path]
	err := f.errs[path]
	f.mu.Unlock()

	if f.Entered != nil {
		f.Entered <- path
	}
	if f.Block != nil {
		<-f.Block
	}

	if err != nil {
		return nil, &audio.ResourceFetchError{Path: path, Err: err}
	}
	if !ok {
		return nil, &audio.ResourceFetchError{Path: path, StatusCode: 404, Err: fmt.Errorf("not found")}
	}
	return data, nil
}

// Device records voices instead of playing them.
type Device struct {
	mu        sync.Mutex
	state     audio.ContextState
	started   []*audio.AudioData
	resumes   int
	closes    int
	StartErr  error
	ResumeErr error
}

// NewDevice creates a running Device.
func NewDevice() *Device {
	return &Device{state: audio.StateRunning}
}

func (d *Device) State() audio.ContextState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SetState simulates the platform changing the device state.
func (d *Device) SetState(state audio.ContextState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = state
}

func (d *Device) Suspend() error {
	d.SetState(audio.StateSuspended)
	return nil
}

func (d *Device) Resume(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resumes++
	if d.ResumeErr != nil {
		return d.ResumeErr
	}
	if d.state == audio.StateSuspended {
		d.state = audio.StateRunning
	}
	return nil
}

func (d *Device) Start(buffer *audio.AudioData) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.StartErr != nil {
		return d.StartErr
	}
	if d.state == audio.StateClosed {
		return audio.ErrBackendClosed
	}
	d.started = append(d.started, buffer)
	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	d.state = audio.StateClosed
	return nil
}

// Started returns the buffers of all started voices in order.
func (d *Device) Started() []*audio.AudioData {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*audio.AudioData(nil), d.started...)
}

// Resumes returns how often Resume was called.
func (d *Device) Resumes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resumes
}

// Closes returns how often Close was called.
func (d *Device) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// DeviceFactory hands out Devices and counts creations.
type DeviceFactory struct {
	mu      sync.Mutex
	devices []*Device
	// Err, when set, makes creation fail.
	Err error
	// Initial is the state new devices start in; zero means running.
	Initial audio.ContextState
}

// Create implements audio.DeviceFactory.
func (f *DeviceFactory) Create(ctx context.Context) (audio.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	d := NewDevice()
	if f.Initial != audio.StateUninitialized {
		d.state = f.Initial
	}
	f.devices = append(f.devices, d)
	return d, nil
}

// Devices returns every device created so far.
func (f *DeviceFactory) Devices() []*Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Device(nil), f.devices...)
}

// Last returns the most recently created device, or nil.
func (f *DeviceFactory) Last() *Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.devices) == 0 {
		return nil
	}
	return f.devices[len(f.devices)-1]
}
