package domain

// AudioSample is a decoded mono waveform with amplitudes in [-1, 1].
type AudioSample struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the sample length in seconds.
func (a AudioSample) Duration() float64 {
	if a.SampleRate <= 0 {
		return 0
	}
	return float64(len(a.Samples)) / float64(a.SampleRate)
}

// BeatTimeline holds the estimated tempo in BPM and beat timestamps in seconds,
// sorted ascending. Beats may be empty.
type BeatTimeline struct {
	Tempo float64
	Beats []float64
}

// TikTokJob is the topic-driven generation payload. Fields are opaque labels.
type TikTokJob struct {
	Prompt       string
	TextPosition string
	VoiceStyle   string
	VisualStyle  string
}

// VoiceStyleNone disables the voiceover step.
const VoiceStyleNone = "none"
