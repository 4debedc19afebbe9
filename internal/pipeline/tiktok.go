package pipeline

import (
	"context"

	"videogen/internal/domain"
	"videogen/internal/infra"
	"videogen/internal/prompt"
	"videogen/internal/providers/gateway"
	"videogen/internal/providers/voice"
)

// ScriptGenerator produces a script from a composed instruction.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, prompt string) (*string, error)
}

// TopicVideoGenerator renders a portrait clip from a script.
type TopicVideoGenerator interface {
	TopicVideo(ctx context.Context, req gateway.TopicVideoRequest) (*string, error)
}

// TikTokResult is the response payload of a successful run.
type TikTokResult struct {
	VideoURL *string `json:"video_url"`
	Script   string  `json:"script"`
}

// TikTokDeps wires the collaborators of TikTok.
type TikTokDeps struct {
	Scripts ScriptGenerator
	Video   TopicVideoGenerator
	Voice   voice.Voicer
	Logger  *infra.Logger
}

// TikTok is the topic-driven flow.
type TikTok struct {
	scripts ScriptGenerator
	video   TopicVideoGenerator
	voice   voice.Voicer
	logger  *infra.Logger
}

// NewTikTok constructs the flow. A nil Voicer falls back to the unimplemented one.
func NewTikTok(deps TikTokDeps) *TikTok {
	v := deps.Voice
	if v == nil {
		v = voice.NewUnimplemented()
	}
	return &TikTok{
		scripts: deps.Scripts,
		video:   deps.Video,
		voice:   v,
		logger:  infra.OrDiscard(deps.Logger),
	}
}

// Generate writes a script for the job's topic and renders a video from it.
// The voiceover step runs unless VoiceStyle is "none"; its outcome never
// affects the response and no audio is merged into the video.
func (t *TikTok) Generate(ctx context.Context, job domain.TikTokJob) (*TikTokResult, error) {
	scriptOut, err := t.scripts.GenerateScript(ctx, prompt.ComposeScript(job.Prompt))
	if err != nil {
		return nil, err
	}
	script := ""
	if scriptOut != nil {
		script = *scriptOut
	}

	videoURL, err := t.video.TopicVideo(ctx, gateway.TopicVideoRequest{
		Script:       script,
		VisualStyle:  job.VisualStyle,
		TextPosition: job.TextPosition,
	})
	if err != nil {
		return nil, err
	}

	if job.VoiceStyle != domain.VoiceStyleNone {
		t.voiceover(ctx, script, job.VoiceStyle)
	}

	return &TikTokResult{VideoURL: videoURL, Script: script}, nil
}

func (t *TikTok) voiceover(ctx context.Context, script, style string) {
	ref, err := t.voice.Voiceover(ctx, script, style)
	if err != nil {
		t.logger.Warn().Err(err).Str("voice_style", style).Msg("pipeline: voiceover failed, continuing without audio")
		return
	}
	t.logger.Debug().Str("voice_style", style).Str("audio_ref", ref).Msg("pipeline: voiceover recorded")
}
