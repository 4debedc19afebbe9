// Package gateway issues single generation calls to hosted models and reduces
// their output list to one result.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"videogen/internal/domain"
	"videogen/internal/infra"
)

// Fixed request parameters for the hosted models.
const (
	ScriptMaxLength = 500
	VideoLength     = "4"
	VideoFPS        = 24
	PortraitWidth   = 1080
	PortraitHeight  = 1920
)

// Runner executes one prediction and returns the raw model output.
type Runner interface {
	Run(ctx context.Context, model string, input map[string]any) (any, error)
}

// Options configures a Gateway.
type Options struct {
	Runner      Runner
	ScriptModel string
	VideoModel  string
	Logger      *infra.Logger
}

// Gateway adapts a Runner to the three call shapes used by the request flows.
type Gateway struct {
	runner      Runner
	scriptModel string
	videoModel  string
	logger      *infra.Logger
}

// TopicVideoRequest carries the script plus styling context. VisualStyle and
// TextPosition are not part of the model input schema and are only logged.
type TopicVideoRequest struct {
	Script       string
	VisualStyle  string
	TextPosition string
}

// New constructs a Gateway.
func New(opts Options) *Gateway {
	return &Gateway{
		runner:      opts.Runner,
		scriptModel: opts.ScriptModel,
		videoModel:  opts.VideoModel,
		logger:      infra.OrDiscard(opts.Logger),
	}
}

// Invoke runs model once. It returns the first output element, nil when the
// output is empty, or a *domain.GenerationError when the call fails.
func (g *Gateway) Invoke(ctx context.Context, operation, model string, input map[string]any) (*string, error) {
	out, err := g.runner.Run(ctx, model, input)
	if err != nil {
		g.logger.Warn().Err(err).Str("operation", operation).Str("model", model).Msg("gateway: remote call failed")
		return nil, &domain.GenerationError{Operation: operation, Model: model, Err: err}
	}
	return FirstResult(out), nil
}

// GenerateScript asks the text model for a script.
func (g *Gateway) GenerateScript(ctx context.Context, prompt string) (*string, error) {
	return g.Invoke(ctx, "script", g.scriptModel, map[string]any{
		"prompt":     prompt,
		"max_length": ScriptMaxLength,
	})
}

// BeatVideo renders a clip from one beat prompt.
func (g *Gateway) BeatVideo(ctx context.Context, prompt string) (*string, error) {
	return g.Invoke(ctx, "video", g.videoModel, map[string]any{
		"prompt":       prompt,
		"video_length": VideoLength,
		"fps":          VideoFPS,
	})
}

// TopicVideo renders a portrait clip from a script.
func (g *Gateway) TopicVideo(ctx context.Context, req TopicVideoRequest) (*string, error) {
	g.logger.Debug().
		Str("visual_style", req.VisualStyle).
		Str("text_position", req.TextPosition).
		Msg("gateway: styling context not forwarded to model")
	return g.Invoke(ctx, "video", g.videoModel, map[string]any{
		"prompt":       req.Script,
		"video_length": VideoLength,
		"fps":          VideoFPS,
		"width":        PortraitWidth,
		"height":       PortraitHeight,
	})
}

// FirstResult returns the first element of a model output list. A scalar
// output counts as a one-element list and non-string elements are returned
// as JSON text. Nil and empty outputs yield nil.
func FirstResult(out any) *string {
	var first any
	switch v := out.(type) {
	case nil:
		return nil
	case []any:
		if len(v) == 0 {
			return nil
		}
		first = v[0]
	case []string:
		if len(v) == 0 {
			return nil
		}
		first = v[0]
	default:
		first = v
	}

	switch v := first.(type) {
	case nil:
		return nil
	case string:
		return &v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			s := fmt.Sprint(v)
			return &s
		}
		s := string(b)
		return &s
	}
}
