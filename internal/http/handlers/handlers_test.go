package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"videogen/internal/domain"
	"videogen/internal/pipeline"
)

type stubMusicVideo struct {
	res   *pipeline.MusicVideoResult
	err   error
	in    pipeline.MusicVideoInput
	audio string
	calls int
}

func (s *stubMusicVideo) Generate(ctx context.Context, in pipeline.MusicVideoInput) (*pipeline.MusicVideoResult, error) {
	s.calls++
	s.in = in
	if in.Audio != nil {
		data, _ := io.ReadAll(in.Audio)
		s.audio = string(data)
	}
	return s.res, s.err
}

type stubTikTok struct {
	res   *pipeline.TikTokResult
	err   error
	job   domain.TikTokJob
	calls int
}

func (s *stubTikTok) Generate(ctx context.Context, job domain.TikTokJob) (*pipeline.TikTokResult, error) {
	s.calls++
	s.job = job
	return s.res, s.err
}

func strPtr(s string) *string { return &s }

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func multipartBody(t *testing.T, fields map[string]string, fileName, fileContent string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write([]byte(fileContent)); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestRoot(t *testing.T) {
	rec := httptest.NewRecorder()
	(&App{}).Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "Video Generator API" {
		t.Fatalf("body = %v", body)
	}
}

func TestThemes(t *testing.T) {
	rec := httptest.NewRecorder()
	(&App{}).Themes(rec, httptest.NewRequest(http.MethodGet, "/themes", nil))
	body := decodeBody(t, rec)
	themes, ok := body["themes"].([]any)
	if !ok || len(themes) != 4 {
		t.Fatalf("themes = %v", body["themes"])
	}
}

func TestUploadSongSuccess(t *testing.T) {
	url := "https://cdn.test/v.mp4"
	mv := &stubMusicVideo{res: &pipeline.MusicVideoResult{Status: "success", VideoURL: &url, Tempo: 123.05, NumBeats: 42}}
	app := &App{MusicVideo: mv}

	body, ct := multipartBody(t, map[string]string{"theme": "nature"}, "song.wav", "RIFFDATA")
	req := httptest.NewRequest(http.MethodPost, "/upload-song", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	app.UploadSong(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	got := decodeBody(t, rec)
	if got["status"] != "success" || got["video_url"] != url || got["tempo"] != 123.05 || got["num_beats"] != float64(42) {
		t.Fatalf("body = %v", got)
	}
	if mv.in.Theme != "nature" || mv.in.Effects != "default" || mv.in.Filename != "song.wav" || mv.audio != "RIFFDATA" {
		t.Fatalf("input = %+v audio %q", mv.in, mv.audio)
	}
}

func TestUploadSongNullVideoURL(t *testing.T) {
	mv := &stubMusicVideo{res: &pipeline.MusicVideoResult{Status: "success", Tempo: 120}}
	body, ct := multipartBody(t, map[string]string{"theme": "x", "effects": "strobe"}, "a.mp3", "ID3")
	req := httptest.NewRequest(http.MethodPost, "/upload-song", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	(&App{MusicVideo: mv}).UploadSong(rec, req)

	got := decodeBody(t, rec)
	if v, ok := got["video_url"]; !ok || v != nil {
		t.Fatalf("video_url = %v (present %v), want null", v, ok)
	}
	if mv.in.Effects != "strobe" {
		t.Fatalf("effects = %q", mv.in.Effects)
	}
}

func TestUploadSongFailureIs500WithDetail(t *testing.T) {
	genErr := &domain.GenerationError{Operation: "video", Model: "anotherjesse/zeroscope-v2-xl:abc", Err: errors.New("invalid token")}
	mv := &stubMusicVideo{err: genErr}
	body, ct := multipartBody(t, map[string]string{"theme": "nature"}, "song.wav", "RIFF")
	req := httptest.NewRequest(http.MethodPost, "/upload-song", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	(&App{MusicVideo: mv}).UploadSong(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeBody(t, rec)
	detail, _ := got["detail"].(string)
	if !strings.Contains(detail, "video generation failed") || !strings.Contains(detail, "invalid token") {
		t.Fatalf("detail = %q", detail)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected extra fields: %v", got)
	}
}

func TestUploadSongValidation(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		fileName string
		field    string
	}{
		{name: "missing file", fields: map[string]string{"theme": "nature"}, field: "file"},
		{name: "missing theme", fields: map[string]string{"effects": "x"}, fileName: "a.wav", field: "theme"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mv := &stubMusicVideo{}
			body, ct := multipartBody(t, tc.fields, tc.fileName, "RIFF")
			req := httptest.NewRequest(http.MethodPost, "/upload-song", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			(&App{MusicVideo: mv}).UploadSong(rec, req)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d", rec.Code)
			}
			if detail, _ := decodeBody(t, rec)["detail"].(string); !strings.HasPrefix(detail, tc.field) {
				t.Fatalf("detail = %q, want field %q", detail, tc.field)
			}
			if mv.calls != 0 {
				t.Fatal("flow must not run on invalid input")
			}
		})
	}
}

func TestUploadSongNotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload-song", strings.NewReader(`{"theme":"nature"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	(&App{MusicVideo: &stubMusicVideo{}}).UploadSong(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUploadSongTooLarge(t *testing.T) {
	mv := &stubMusicVideo{}
	body, ct := multipartBody(t, map[string]string{"theme": "nature"}, "big.wav", strings.Repeat("a", 4096))
	req := httptest.NewRequest(http.MethodPost, "/upload-song", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	(&App{MusicVideo: mv, MaxUploadBytes: 512}).UploadSong(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if mv.calls != 0 {
		t.Fatal("flow must not run for oversized uploads")
	}
}

func TestGenerateTikTokSuccess(t *testing.T) {
	tt := &stubTikTok{res: &pipeline.TikTokResult{VideoURL: strPtr("https://cdn.test/t.mp4"), Script: "Hello"}}
	payload := `{"prompt":"cats","text_position":"bottom","voice_style":"none","visual_style":"realistic"}`
	rec := httptest.NewRecorder()
	(&App{TikTok: tt}).GenerateTikTok(rec, httptest.NewRequest(http.MethodPost, "/generate-tiktok", strings.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	got := decodeBody(t, rec)
	if got["video_url"] != "https://cdn.test/t.mp4" || got["script"] != "Hello" {
		t.Fatalf("body = %v", got)
	}
	want := domain.TikTokJob{Prompt: "cats", TextPosition: "bottom", VoiceStyle: "none", VisualStyle: "realistic"}
	if tt.job != want {
		t.Fatalf("job = %+v", tt.job)
	}
}

func TestGenerateTikTokValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		detail  string
	}{
		{name: "malformed", payload: `{"prompt":`, detail: "body"},
		{name: "missing voice_style", payload: `{"prompt":"a","text_position":"top","visual_style":"x"}`, detail: "voice_style"},
		{name: "missing prompt", payload: `{"text_position":"top","voice_style":"none","visual_style":"x"}`, detail: "prompt"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt := &stubTikTok{}
			rec := httptest.NewRecorder()
			(&App{TikTok: tt}).GenerateTikTok(rec, httptest.NewRequest(http.MethodPost, "/generate-tiktok", strings.NewReader(tc.payload)))
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d", rec.Code)
			}
			if detail, _ := decodeBody(t, rec)["detail"].(string); !strings.HasPrefix(detail, tc.detail) {
				t.Fatalf("detail = %q", detail)
			}
			if tt.calls != 0 {
				t.Fatal("flow must not run on invalid input")
			}
		})
	}
}

func TestGenerateTikTokEmptyStringsAreAccepted(t *testing.T) {
	tt := &stubTikTok{res: &pipeline.TikTokResult{}}
	payload := `{"prompt":"","text_position":"","voice_style":"","visual_style":""}`
	rec := httptest.NewRecorder()
	(&App{TikTok: tt}).GenerateTikTok(rec, httptest.NewRequest(http.MethodPost, "/generate-tiktok", strings.NewReader(payload)))
	if rec.Code != http.StatusOK || tt.calls != 1 {
		t.Fatalf("status = %d calls = %d", rec.Code, tt.calls)
	}
}

func TestGenerateTikTokFailure(t *testing.T) {
	tt := &stubTikTok{err: &domain.GenerationError{Operation: "script", Model: "meta/llama-2-70b-chat:02e5", Err: errors.New("402 payment required")}}
	payload := `{"prompt":"a","text_position":"top","voice_style":"none","visual_style":"x"}`
	rec := httptest.NewRecorder()
	(&App{TikTok: tt}).GenerateTikTok(rec, httptest.NewRequest(http.MethodPost, "/generate-tiktok", strings.NewReader(payload)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	detail, _ := decodeBody(t, rec)["detail"].(string)
	if !strings.Contains(detail, "script generation failed") || !strings.Contains(detail, "402 payment required") {
		t.Fatalf("detail = %q", detail)
	}
}
