//go:build !cgo

package audio

import (
	"fmt"
	"log/slog"
)

// PortAudioSource is unavailable when built without cgo.
type PortAudioSource struct{}

func OpenPortAudio(device string, sampleRate float64, blockSize int) (*PortAudioSource, error) {
	slog.Warn("Audio support is disabled in this build (requires CGO)")
	return nil, fmt.Errorf("%w: built without cgo", ErrAudioUnavailable)
}

func (s *PortAudioSource) Read(block []int32) error {
	return ErrAudioUnavailable
}

func (s *PortAudioSource) Close() error {
	return nil
}
