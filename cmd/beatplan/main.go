// Command beatplan analyses a local audio file and prints its tempo, beat
// positions and the per-beat prompt plan as JSON. No remote model is called.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"videogen/internal/audio"
	"videogen/internal/infra"
	"videogen/internal/prompt"
	"videogen/internal/storage"
)

type report struct {
	File     string      `json:"file"`
	Theme    string      `json:"theme"`
	Duration float64     `json:"duration_seconds"`
	Tempo    float64     `json:"tempo"`
	NumBeats int         `json:"num_beats"`
	Beats    []float64   `json:"beats"`
	Prompts  prompt.Plan `json:"prompts"`
}

func main() {
	var (
		fileFlag   string
		themeFlag  string
		ffmpegFlag string
		listThemes bool
	)
	flag.StringVar(&fileFlag, "file", "", "Audio file to analyse (WAV natively, other formats via ffmpeg)")
	flag.StringVar(&themeFlag, "theme", prompt.FallbackTheme, "Visual theme used to build the prompt plan")
	flag.StringVar(&ffmpegFlag, "ffmpeg", "", "ffmpeg binary (fallbacks to FFMPEG_PATH)")
	flag.BoolVar(&listThemes, "themes", false, "Print the theme catalogue and exit")
	flag.Parse()

	_ = godotenv.Load()
	// stdout carries the report
	logger := infra.NewLogger(strings.TrimSpace(os.Getenv("APP_ENV"))).Output(os.Stderr)

	if listThemes {
		printJSON(prompt.Themes())
		return
	}

	path := strings.TrimSpace(fileFlag)
	if path == "" && flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "an audio file is required via -file or as the first argument")
		os.Exit(1)
	}

	ffmpeg := strings.TrimSpace(ffmpegFlag)
	if ffmpeg == "" {
		ffmpeg = strings.TrimSpace(os.Getenv("FFMPEG_PATH"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := analyse(ctx, path, themeFlag, ffmpeg, &logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyse %s: %v\n", path, err)
		os.Exit(1)
	}
	printJSON(rep)
}

// analyse copies the input into a scratch TempStore so the decode path is the
// same one the API uses for uploads.
func analyse(ctx context.Context, path, theme, ffmpeg string, logger *infra.Logger) (*report, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	scratch, err := os.MkdirTemp("", "beatplan-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	store, err := storage.NewTempStore(scratch)
	if err != nil {
		return nil, err
	}
	file, err := store.Save(ctx, src, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Release() }()

	sample, err := audio.NewDecoder(audio.DecoderOptions{FFmpegPath: ffmpeg, Logger: logger}).Decode(ctx, file.Path)
	if err != nil {
		return nil, err
	}
	timeline, err := audio.NewBeatTracker().Extract(sample)
	if err != nil {
		return nil, fmt.Errorf("beat extraction failed: %w", err)
	}
	beats := timeline.Beats
	if beats == nil {
		beats = []float64{}
	}
	return &report{
		File:     path,
		Theme:    theme,
		Duration: sample.Duration(),
		Tempo:    timeline.Tempo,
		NumBeats: len(beats),
		Beats:    beats,
		Prompts:  prompt.Sequence(beats, theme),
	}, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
}
