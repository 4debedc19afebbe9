// Package voice defines the voiceover step of topic-driven generation.
package voice

import "context"

// Voicer turns a script into a voiceover and returns a reference to the audio.
type Voicer interface {
	Voiceover(ctx context.Context, script, style string) (string, error)
}

// Unimplemented stands in until a speech provider is wired. It never fails and
// never produces audio; nothing is merged into the generated video.
type Unimplemented struct{}

// NewUnimplemented returns the placeholder Voicer.
func NewUnimplemented() Unimplemented {
	return Unimplemented{}
}

// Voiceover always returns an empty reference.
func (Unimplemented) Voiceover(ctx context.Context, script, style string) (string, error) {
	return "", nil
}

var _ Voicer = Unimplemented{}
