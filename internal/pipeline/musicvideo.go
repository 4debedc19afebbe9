// Package pipeline runs the audio-driven and topic-driven generation flows.
// Each flow is a linear sequence of steps; the first failing step aborts it.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"videogen/internal/domain"
	"videogen/internal/infra"
	"videogen/internal/prompt"
	"videogen/internal/storage"
)

// UploadStore persists an upload for the duration of one request.
type UploadStore interface {
	Save(ctx context.Context, r io.Reader, filename string) (*storage.TempFile, error)
}

// AudioDecoder turns a stored file into samples.
type AudioDecoder interface {
	Decode(ctx context.Context, path string) (domain.AudioSample, error)
}

// BeatExtractor estimates tempo and beat positions.
type BeatExtractor interface {
	Extract(sample domain.AudioSample) (domain.BeatTimeline, error)
}

// BeatVideoGenerator renders a clip from a single prompt.
type BeatVideoGenerator interface {
	BeatVideo(ctx context.Context, prompt string) (*string, error)
}

// MusicVideoInput is one /upload-song request.
type MusicVideoInput struct {
	Audio    io.Reader
	Filename string
	Theme    string
	Effects  string
}

// MusicVideoResult is the response payload of a successful run.
type MusicVideoResult struct {
	Status   string  `json:"status"`
	VideoURL *string `json:"video_url"`
	Tempo    float64 `json:"tempo"`
	NumBeats int     `json:"num_beats"`
}

// MusicVideoDeps wires the collaborators of MusicVideo.
type MusicVideoDeps struct {
	Store   UploadStore
	Decoder AudioDecoder
	Beats   BeatExtractor
	Video   BeatVideoGenerator
	Logger  *infra.Logger
}

// MusicVideo is the audio-driven flow.
type MusicVideo struct {
	store   UploadStore
	decoder AudioDecoder
	beats   BeatExtractor
	video   BeatVideoGenerator
	logger  *infra.Logger
}

// NewMusicVideo constructs the flow.
func NewMusicVideo(deps MusicVideoDeps) *MusicVideo {
	return &MusicVideo{
		store:   deps.Store,
		decoder: deps.Decoder,
		beats:   deps.Beats,
		video:   deps.Video,
		logger:  infra.OrDiscard(deps.Logger),
	}
}

// Generate stores the upload, derives a prompt per beat and renders a clip
// from the first prompt only; the rest of the plan is computed but unused.
// The temporary file is removed on every return path. Effects is accepted
// but not sent to the model.
func (m *MusicVideo) Generate(ctx context.Context, in MusicVideoInput) (*MusicVideoResult, error) {
	file, err := m.store.Save(ctx, in.Audio, in.Filename)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	defer func() {
		if err := file.Release(); err != nil {
			m.logger.Error().Err(err).Str("path", file.Path).Msg("pipeline: failed to release upload")
		}
	}()

	sample, err := m.decoder.Decode(ctx, file.Path)
	if err != nil {
		return nil, err
	}
	timeline, err := m.beats.Extract(sample)
	if err != nil {
		return nil, fmt.Errorf("beat extraction failed: %w", err)
	}

	plan := prompt.Sequence(timeline.Beats, in.Theme)
	m.logger.Debug().
		Str("theme", in.Theme).
		Str("effects", in.Effects).
		Float64("tempo", timeline.Tempo).
		Int("beats", len(timeline.Beats)).
		Int("prompts", len(plan)).
		Msg("pipeline: prompt plan ready")
	if len(plan) == 0 {
		return nil, fmt.Errorf("video generation failed: %w", domain.ErrNoBeats)
	}

	videoURL, err := m.video.BeatVideo(ctx, plan[0])
	if err != nil {
		return nil, err
	}
	return &MusicVideoResult{
		Status:   "success",
		VideoURL: videoURL,
		Tempo:    timeline.Tempo,
		NumBeats: len(timeline.Beats),
	}, nil
}
