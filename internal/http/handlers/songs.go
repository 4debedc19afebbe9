package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"videogen/internal/domain"
	"videogen/internal/pipeline"
)

const (
	defaultEffects     = "default"
	multipartMemoryMax = 8 << 20
)

// UploadSong runs the audio-driven flow on a multipart upload with fields
// file, theme and an optional effects label.
func (a *App) UploadSong(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes())
	if err := r.ParseMultipartForm(multipartMemoryMax); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.fail(w, r, fmt.Errorf("upload exceeds %d bytes: %w", tooLarge.Limit, err))
			return
		}
		a.fail(w, r, &domain.ValidationError{Field: "body", Reason: "expected multipart form data"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		a.fail(w, r, &domain.ValidationError{Field: "file", Reason: "field required"})
		return
	}
	defer file.Close()

	themes, ok := r.MultipartForm.Value["theme"]
	if !ok || len(themes) == 0 {
		a.fail(w, r, &domain.ValidationError{Field: "theme", Reason: "field required"})
		return
	}
	effects := defaultEffects
	if v, ok := r.MultipartForm.Value["effects"]; ok && len(v) > 0 {
		effects = v[0]
	}

	res, err := a.MusicVideo.Generate(r.Context(), pipeline.MusicVideoInput{
		Audio:    file,
		Filename: header.Filename,
		Theme:    themes[0],
		Effects:  effects,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}
