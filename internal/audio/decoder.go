// Package audio decodes uploaded songs and estimates their beat grid.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"

	"github.com/go-audio/wav"

	"videogen/internal/domain"
	"videogen/internal/infra"
)

// DefaultSampleRate is the rate ffmpeg resamples non-WAV input to.
const DefaultSampleRate = 22050

// DecoderOptions configures a Decoder.
type DecoderOptions struct {
	FFmpegPath string
	SampleRate int
	Logger     *infra.Logger
}

// Decoder turns an audio file into a mono AudioSample. RIFF/WAVE files
// holding integer PCM or IEEE float are decoded in-process; anything else
// goes through ffmpeg.
type Decoder struct {
	ffmpegPath string
	sampleRate int
	logger     *infra.Logger
}

// NewDecoder constructs a Decoder with defaults for empty options.
func NewDecoder(opts DecoderOptions) *Decoder {
	path := opts.FFmpegPath
	if path == "" {
		path = "ffmpeg"
	}
	sr := opts.SampleRate
	if sr <= 0 {
		sr = DefaultSampleRate
	}
	return &Decoder{ffmpegPath: path, sampleRate: sr, logger: infra.OrDiscard(opts.Logger)}
}

// Decode reads the file at path. Every failure wraps domain.ErrDecode.
func (d *Decoder) Decode(ctx context.Context, path string) (domain.AudioSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.AudioSample{}, fmt.Errorf("audio: open: %w: %w", domain.ErrDecode, err)
	}
	defer f.Close()

	header := make([]byte, 12)
	n, _ := io.ReadFull(f, header)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return domain.AudioSample{}, fmt.Errorf("audio: rewind: %w: %w", domain.ErrDecode, err)
	}

	if !isWAV(header[:n]) {
		return d.decodeFFmpeg(ctx, path)
	}

	format, err := wavFormatTag(f)
	if err != nil {
		return domain.AudioSample{}, fmt.Errorf("audio: read wav format: %w: %w", domain.ErrDecode, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return domain.AudioSample{}, fmt.Errorf("audio: rewind: %w: %w", domain.ErrDecode, err)
	}
	switch format {
	case wavFormatPCM:
		return decodeWAV(f)
	case wavFormatFloat:
		return decodeFloatWAV(f)
	default:
		d.logger.Debug().Uint16("wav_format", format).Msg("audio: wav encoding not decoded in-process, using ffmpeg")
		return d.decodeFFmpeg(ctx, path)
	}
}

// WAVE format tags. Extensible files carry the real tag in their subformat.
const (
	wavFormatPCM        uint16 = 0x0001
	wavFormatFloat      uint16 = 0x0003
	wavFormatExtensible uint16 = 0xFFFE

	maxWAVChunks = 64
)

func isWAV(header []byte) bool {
	return len(header) >= 12 && string(header[0:4]) == "RIFF" && string(header[8:12]) == "WAVE"
}

// wavFormatTag walks the RIFF chunks to the fmt chunk and returns its
// effective format tag.
func wavFormatTag(r io.ReadSeeker) (uint16, error) {
	if _, err := r.Seek(12, io.SeekStart); err != nil {
		return 0, err
	}
	hdr := make([]byte, 8)
	for i := 0; i < maxWAVChunks; i++ {
		if _, err := io.ReadFull(r, hdr); err != nil {
			return 0, fmt.Errorf("no fmt chunk: %w", err)
		}
		size := int64(binary.LittleEndian.Uint32(hdr[4:8]))
		if string(hdr[0:4]) != "fmt " {
			if _, err := r.Seek(size+size%2, io.SeekCurrent); err != nil {
				return 0, err
			}
			continue
		}
		if size < 16 || size > 1<<16 {
			return 0, fmt.Errorf("fmt chunk of %d bytes", size)
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return 0, err
		}
		tag := binary.LittleEndian.Uint16(body[0:2])
		if tag == wavFormatExtensible {
			if size < 26 {
				return 0, errors.New("extensible fmt chunk without subformat")
			}
			tag = binary.LittleEndian.Uint16(body[24:26])
		}
		return tag, nil
	}
	return 0, errors.New("no fmt chunk")
}

func decodeWAV(r io.ReadSeeker) (domain.AudioSample, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return domain.AudioSample{}, fmt.Errorf("audio: %w: invalid wav file", domain.ErrDecode)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return domain.AudioSample{}, fmt.Errorf("audio: decode wav: %w: %w", domain.ErrDecode, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.SampleRate <= 0 {
		return domain.AudioSample{}, fmt.Errorf("audio: %w: wav has no format", domain.ErrDecode)
	}
	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	frames := len(buf.Data) / channels
	if frames == 0 {
		return domain.AudioSample{}, fmt.Errorf("audio: %w: no audio data", domain.ErrDecode)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))
	offset := 0
	if bitDepth == 8 {
		// 8-bit PCM is unsigned.
		offset = 128
	}

	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]-offset) / scale
		}
		samples[i] = float32(sum / float64(channels))
	}
	return domain.AudioSample{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

// decodeFloatWAV reads IEEE float data (32 or 64 bit) from the data chunk.
// go-audio only converts integer PCM, so the raw chunk is read directly.
func decodeFloatWAV(r io.ReadSeeker) (domain.AudioSample, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return domain.AudioSample{}, fmt.Errorf("audio: %w: invalid wav file", domain.ErrDecode)
	}
	if err := dec.FwdToPCM(); err != nil {
		return domain.AudioSample{}, fmt.Errorf("audio: seek wav data: %w: %w", domain.ErrDecode, err)
	}
	if dec.PCMChunk == nil || dec.SampleRate == 0 {
		return domain.AudioSample{}, fmt.Errorf("audio: %w: wav has no data chunk", domain.ErrDecode)
	}
	width := int(dec.BitDepth) / 8
	if width != 4 && width != 8 {
		return domain.AudioSample{}, fmt.Errorf("audio: %w: unsupported float width %d bits", domain.ErrDecode, dec.BitDepth)
	}
	channels := int(dec.NumChans)
	if channels <= 0 {
		channels = 1
	}
	raw, err := io.ReadAll(io.LimitReader(dec.PCMChunk.R, int64(dec.PCMChunk.Size)))
	if err != nil {
		return domain.AudioSample{}, fmt.Errorf("audio: read wav data: %w: %w", domain.ErrDecode, err)
	}
	frameBytes := width * channels
	frames := len(raw) / frameBytes
	if frames == 0 {
		return domain.AudioSample{}, fmt.Errorf("audio: %w: no audio data", domain.ErrDecode)
	}

	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			off := i*frameBytes + c*width
			if width == 4 {
				sum += float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[off:])))
			} else {
				sum += math.Float64frombits(binary.LittleEndian.Uint64(raw[off:]))
			}
		}
		samples[i] = float32(sum / float64(channels))
	}
	return domain.AudioSample{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

// decodeFFmpeg asks ffmpeg for mono float32 little-endian PCM on stdout.
func (d *Decoder) decodeFFmpeg(ctx context.Context, path string) (domain.AudioSample, error) {
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-v", "error",
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.sampleRate),
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		d.logger.Debug().Str("stderr", stderr.String()).Msg("audio: ffmpeg failed")
		return domain.AudioSample{}, fmt.Errorf("audio: ffmpeg: %w: %w (%s)", domain.ErrDecode, err, bytes.TrimSpace(stderr.Bytes()))
	}

	samples := pcmF32LE(stdout.Bytes())
	if len(samples) == 0 {
		return domain.AudioSample{}, fmt.Errorf("audio: %w: no audio data decoded", domain.ErrDecode)
	}
	return domain.AudioSample{Samples: samples, SampleRate: d.sampleRate}, nil
}

func pcmF32LE(data []byte) []float32 {
	n := len(data) / 4
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4 : i*4+4]))
	}
	return samples
}
