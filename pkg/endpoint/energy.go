package endpoint

import (
	"encoding/binary"
	"math"

	"github.com/saynalabs/sayna/pkg/frames"
)

// EnergyClassifier is a pure-Go voice activity classifier based on RMS
// energy with hysteresis, so the decision does not flicker around the
// threshold between adjacent frames.
type EnergyClassifier struct {
	speechThreshold  float64 // normalized RMS level to enter speech
	silenceThreshold float64 // normalized RMS level to leave speech
	inSpeech         bool
}

// NewEnergyClassifier returns a classifier tuned for 16 kHz 30 ms frames
// from a near-field Bluetooth headset microphone.
func NewEnergyClassifier() *EnergyClassifier {
	return &EnergyClassifier{
		speechThreshold:  0.015,
		silenceThreshold: 0.008,
	}
}

// NewEnergyClassifierWithThresholds allows explicit tuning. enter must be
// >= leave for the hysteresis to make sense.
func NewEnergyClassifierWithThresholds(enter, leave float64) *EnergyClassifier {
	if leave > enter {
		leave = enter
	}
	return &EnergyClassifier{speechThreshold: enter, silenceThreshold: leave}
}

func (c *EnergyClassifier) Classify(f frames.AudioFrame) Activity {
	level := rms(f.RawPayload())
	if c.inSpeech {
		if level < c.silenceThreshold {
			c.inSpeech = false
		}
	} else {
		if level >= c.speechThreshold {
			c.inSpeech = true
		}
	}
	if c.inSpeech {
		return Speech
	}
	return Silence
}

// Reset clears hysteresis state between sessions.
func (c *EnergyClassifier) Reset() {
	c.inSpeech = false
}

// rms computes the normalized root mean square of s16le samples, in [0, 1].
func rms(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}
