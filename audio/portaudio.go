//go:build cgo

package audio

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

var (
	paMutex       sync.Mutex
	paInitialized bool
)

// PortAudioSource captures the microphone through PortAudio. Multi
// channel devices are reduced to their first channel.
type PortAudioSource struct {
	stream   *portaudio.Stream
	buffer   []float32
	channels int
}

// OpenPortAudio opens the first input device whose name contains
// device (case insensitive, empty matches the default input).
func OpenPortAudio(device string, sampleRate float64, blockSize int) (*PortAudioSource, error) {
	paMutex.Lock()
	defer paMutex.Unlock()
	if !paInitialized {
		if err := portaudio.Initialize(); err != nil {
			return nil, fmt.Errorf("%w: initializing portaudio: %w", ErrAudioUnavailable, err)
		}
		slog.Info("PortAudio initialized")
		paInitialized = true
	}

	inDevice, err := findDevice(device)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAudioUnavailable, err)
	}
	channels := max(1, inDevice.MaxInputChannels)
	s := &PortAudioSource{
		buffer:   make([]float32, blockSize*channels),
		channels: channels,
	}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   inDevice,
			Channels: channels,
			Latency:  inDevice.DefaultLowInputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: blockSize,
	}
	s.stream, err = portaudio.OpenStream(params, s.buffer)
	if err != nil {
		return nil, fmt.Errorf("%w: opening stream: %w", ErrAudioUnavailable, err)
	}
	if err := s.stream.Start(); err != nil {
		s.stream.Close()
		return nil, fmt.Errorf("%w: starting stream: %w", ErrAudioUnavailable, err)
	}
	slog.Info("Audio input opened", "device", inDevice.Name, "sampleRate", sampleRate, "blockSize", blockSize)
	return s, nil
}

// Read fills block with the next samples scaled to the int32 range.
// Overflow errors are reported but the captured data is still used.
func (s *PortAudioSource) Read(block []int32) error {
	err := s.stream.Read()
	n := min(len(block), len(s.buffer)/s.channels)
	for i := range n {
		v := float64(s.buffer[i*s.channels]) * math.MaxInt32
		block[i] = int32(math.Max(math.MinInt32, math.Min(math.MaxInt32, v)))
	}
	clear(block[n:])
	if err == portaudio.InputOverflowed {
		return nil
	}
	return err
}

func (s *PortAudioSource) Close() error {
	s.stream.Stop()
	err := s.stream.Close()
	paMutex.Lock()
	defer paMutex.Unlock()
	if paInitialized {
		if terr := portaudio.Terminate(); terr != nil {
			slog.Error("Failed to terminate portaudio", "error", terr)
		} else {
			paInitialized = false
		}
	}
	return err
}

func findDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("could not list audio devices: %w", err)
	}
	for _, device := range devices {
		if device.MaxInputChannels > 0 && strings.Contains(strings.ToLower(device.Name), strings.ToLower(name)) {
			return device, nil
		}
	}
	return nil, fmt.Errorf("no audio input device matching %q", name)
}
