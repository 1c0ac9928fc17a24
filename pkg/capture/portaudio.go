package capture

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource captures from the default input device through PortAudio.
// Meant for development machines without a PulseAudio/Bluetooth stack; the
// embedded device uses ParecSource.
type PortAudioSource struct {
	rate         int
	channels     int
	frameSamples int

	stream *portaudio.Stream
	buf    []int16
}

func NewPortAudioSource(rate, channels, frameSamples int) *PortAudioSource {
	return &PortAudioSource{
		rate:         rate,
		channels:     channels,
		frameSamples: frameSamples,
	}
}

func (s *PortAudioSource) Open(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio initialize: %w", err)
	}
	s.buf = make([]int16, s.frameSamples*s.channels)
	stream, err := portaudio.OpenDefaultStream(s.channels, 0, float64(s.rate), s.frameSamples, s.buf)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("open default stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("start stream: %w", err)
	}
	s.stream = stream
	return nil
}

func (s *PortAudioSource) ReadFrame(buf []byte) (int, error) {
	if s.stream == nil {
		return 0, fmt.Errorf("portaudio not open")
	}
	if err := s.stream.Read(); err != nil {
		return 0, err
	}
	n := len(s.buf) * 2
	if n > len(buf) {
		n = len(buf)
	}
	for i := 0; i < n/2; i++ {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s.buf[i]))
	}
	return n, nil
}

func (s *PortAudioSource) Close() error {
	if s.stream != nil {
		_ = s.stream.Stop()
		s.stream.Close()
		s.stream = nil
	}
	return portaudio.Terminate()
}
