package handlers

import (
	"encoding/json"
	"net/http"

	"videogen/internal/domain"
)

// tiktokRequest uses pointers so an absent field can be told apart from an
// empty string.
type tiktokRequest struct {
	Prompt       *string `json:"prompt"`
	TextPosition *string `json:"text_position"`
	VoiceStyle   *string `json:"voice_style"`
	VisualStyle  *string `json:"visual_style"`
}

func (req tiktokRequest) job() (domain.TikTokJob, error) {
	fields := []struct {
		name string
		val  *string
	}{
		{"prompt", req.Prompt},
		{"text_position", req.TextPosition},
		{"voice_style", req.VoiceStyle},
		{"visual_style", req.VisualStyle},
	}
	for _, f := range fields {
		if f.val == nil {
			return domain.TikTokJob{}, &domain.ValidationError{Field: f.name, Reason: "field required"}
		}
	}
	return domain.TikTokJob{
		Prompt:       *req.Prompt,
		TextPosition: *req.TextPosition,
		VoiceStyle:   *req.VoiceStyle,
		VisualStyle:  *req.VisualStyle,
	}, nil
}

// GenerateTikTok runs the topic-driven flow.
func (a *App) GenerateTikTok(w http.ResponseWriter, r *http.Request) {
	var req tiktokRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.fail(w, r, &domain.ValidationError{Field: "body", Reason: "invalid JSON payload"})
		return
	}
	job, err := req.job()
	if err != nil {
		a.fail(w, r, err)
		return
	}

	res, err := a.TikTok.Generate(r.Context(), job)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}
