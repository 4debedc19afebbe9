package audio

import (
	"errors"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"videogen/internal/domain"
)

// DefaultTempo is reported when the signal is too short or too quiet to
// estimate a tempo from.
const DefaultTempo = 120.0

const (
	minBPM        = 60.0
	maxBPM        = 200.0
	anchorWindow  = 5.0
	minOnsetFrame = 100
	silenceFloor  = 1e-9

	coarseBPMStep = 0.5
	fineBPMStep   = 0.1
	refineSpan    = 4.0
)

// BeatTracker estimates tempo and beat positions from a spectral-flux onset
// envelope. The tempo comes from autocorrelation of the envelope and the beat
// grid is phase-locked to the strongest onset in the first few seconds.
type BeatTracker struct {
	frameSize int
	hopSize   int
}

// NewBeatTracker returns a tracker with a 1024 sample frame and 512 sample hop.
func NewBeatTracker() *BeatTracker {
	return &BeatTracker{frameSize: 1024, hopSize: 512}
}

// Extract estimates the beat timeline of sample. A silent or sub-frame input
// yields DefaultTempo and no beats.
func (t *BeatTracker) Extract(sample domain.AudioSample) (domain.BeatTimeline, error) {
	if sample.SampleRate <= 0 {
		return domain.BeatTimeline{}, errors.New("audio: sample rate must be positive")
	}
	onset := t.onsetEnvelope(sample.Samples)
	if len(onset) == 0 || peak(onset) <= silenceFloor {
		return domain.BeatTimeline{Tempo: DefaultTempo}, nil
	}
	bpm := t.estimateBPM(onset, sample.SampleRate)
	beats := t.beatTimes(onset, sample.SampleRate, sample.Duration(), bpm)
	return domain.BeatTimeline{Tempo: bpm, Beats: beats}, nil
}

func (t *BeatTracker) onsetEnvelope(samples []float32) []float64 {
	n := len(samples)
	if n < t.frameSize {
		return nil
	}
	numFrames := (n-t.frameSize)/t.hopSize + 1
	fft := fourier.NewFFT(t.frameSize)
	window := hannWindow(t.frameSize)
	frame := make([]float64, t.frameSize)
	coeffs := make([]complex128, t.frameSize/2+1)
	mag := make([]float64, len(coeffs))
	prev := make([]float64, len(coeffs))
	onset := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		start := i * t.hopSize
		for j := range frame {
			frame[j] = float64(samples[start+j]) * window[j]
		}
		coeffs = fft.Coefficients(coeffs, frame)
		flux := 0.0
		for j, c := range coeffs {
			mag[j] = cmplx.Abs(c)
			if d := mag[j] - prev[j]; d > 0 {
				flux += d
			}
		}
		onset[i] = flux
		copy(prev, mag)
	}
	return onset
}

// estimateBPM scores candidate tempi by the autocorrelation of the smoothed
// onset envelope at their (fractional) frame lag. The coarse pick is weighted
// towards 120 BPM to avoid octave errors and then refined on the raw
// correlation around it.
func (t *BeatTracker) estimateBPM(onset []float64, sr int) float64 {
	if len(onset) < minOnsetFrame {
		return DefaultTempo
	}
	env := smoothEnvelope(onset)
	framesPerMinute := float64(sr) * 60 / float64(t.hopSize)

	corrAt := func(bpm float64) (float64, bool) {
		lag := framesPerMinute / bpm
		if lag < 1 || int(lag)+1 >= len(env) {
			return 0, false
		}
		return lagCorrelation(env, lag), true
	}

	best := 0.0
	bestScore := math.Inf(-1)
	for bpm := minBPM; bpm <= maxBPM; bpm += coarseBPMStep {
		corr, ok := corrAt(bpm)
		if !ok {
			continue
		}
		weight := math.Exp(-0.5 * math.Pow((bpm-120.0)/40.0, 2))
		if score := corr * (0.8 + 0.2*weight); score > bestScore {
			bestScore = score
			best = bpm
		}
	}
	if best == 0 {
		return DefaultTempo
	}

	refined := best
	refinedCorr, _ := corrAt(best)
	for bpm := best - refineSpan; bpm <= best+refineSpan; bpm += fineBPMStep {
		if bpm < minBPM || bpm > maxBPM {
			continue
		}
		if corr, ok := corrAt(bpm); ok && corr > refinedCorr {
			refinedCorr = corr
			refined = bpm
		}
	}
	return math.Round(refined*10) / 10
}

// smoothEnvelope removes the mean and spreads each onset over neighbouring
// frames so that periods falling between whole frames still line up.
func smoothEnvelope(onset []float64) []float64 {
	kernel := [...]float64{1, 2, 3, 2, 1}
	const half = len(kernel) / 2
	mean := 0.0
	for _, v := range onset {
		mean += v
	}
	mean /= float64(len(onset))

	out := make([]float64, len(onset))
	for i := range onset {
		sum, norm := 0.0, 0.0
		for k, w := range kernel {
			j := i + k - half
			if j < 0 || j >= len(onset) {
				continue
			}
			sum += w * (onset[j] - mean)
			norm += w
		}
		out[i] = sum / norm
	}
	return out
}

// lagCorrelation is the mean product of env with itself shifted by lag
// frames, interpolating linearly between frames.
func lagCorrelation(env []float64, lag float64) float64 {
	whole := int(lag)
	frac := lag - float64(whole)
	sum := 0.0
	count := 0
	for i := 0; i+whole+1 < len(env); i++ {
		shifted := env[i+whole]*(1-frac) + env[i+whole+1]*frac
		sum += env[i] * shifted
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func (t *BeatTracker) beatTimes(onset []float64, sr int, duration, bpm float64) []float64 {
	if bpm <= 0 {
		bpm = DefaultTempo
	}
	period := 60.0 / bpm
	frameSec := float64(t.hopSize) / float64(sr)

	search := int(anchorWindow / frameSec)
	if search > len(onset) {
		search = len(onset)
	}
	best := 0
	for i := 1; i < search; i++ {
		if onset[i] > onset[best] {
			best = i
		}
	}
	anchor := float64(best) * frameSec

	var beats []float64
	for ts := anchor; ts >= 0; ts -= period {
		beats = append(beats, roundMillis(ts))
	}
	for ts := anchor + period; ts < duration; ts += period {
		beats = append(beats, roundMillis(ts))
	}
	sort.Float64s(beats)
	return beats
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

func peak(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

func roundMillis(v float64) float64 {
	return math.Round(v*1000) / 1000
}
