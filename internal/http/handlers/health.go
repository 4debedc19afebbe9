package handlers

import (
	"net/http"

	"videogen/internal/prompt"
)

// Root answers the service banner.
func (a *App) Root(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"message": "Video Generator API"})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Themes lists the visual themes accepted by /upload-song.
func (a *App) Themes(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"themes": prompt.Themes()})
}
