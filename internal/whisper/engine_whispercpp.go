//go:build whisper_cpp

package whisper

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	whisperpkg "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog/log"

	"github.com/audivox/whisperd/internal/audio"
	"github.com/audivox/whisperd/internal/media"
)

const whisperSampleRate = 16000

// LocalEngine runs transcription in-process via whisper.cpp.
type LocalEngine struct {
	model   whisperpkg.Model
	threads uint
	mu      sync.Mutex // whisper.cpp contexts must not run concurrently on one model
}

// NewLocalEngine loads a ggml model from disk. This is the expensive step
// the registry caches and retries.
func NewLocalEngine(modelPath string) (Engine, error) {
	threads := uint(runtime.NumCPU())
	if v := os.Getenv("WHISPER_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			threads = uint(n)
		}
	}

	m, err := whisperpkg.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}
	log.Info().Str("model", modelPath).Uint("threads", threads).Msg("whisper: model loaded")
	return &LocalEngine{model: m, threads: threads}, nil
}

func (e *LocalEngine) Close() error {
	if e.model != nil {
		e.model.Close()
	}
	return nil
}

// Transcribe decodes the audio file to 16 kHz mono PCM32F and runs a full
// transcription pass, collecting timestamped segments.
func (e *LocalEngine) Transcribe(ctx context.Context, path string) (*Result, error) {
	samples, err := e.loadSamples(ctx, path)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	wctx, err := e.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create context: %w", err)
	}
	wctx.SetThreads(e.threads)
	_ = wctx.SetLanguage("auto")
	wctx.SetTokenTimestamps(true)

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("process audio: %w", err)
	}

	res := &Result{}
	var parts []string
	for {
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read segment: %w", err)
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		res.Segments = append(res.Segments, Segment{
			ID:    seg.Num,
			Start: seg.Start.Seconds(),
			End:   seg.End.Seconds(),
			Text:  text,
		})
		parts = append(parts, text)
	}
	res.Text = strings.Join(parts, " ")
	res.Language = wctx.Language()
	if res.Language == "" {
		res.Language = wctx.DetectedLanguage()
	}
	return res, nil
}

// loadSamples reads path into float32 PCM at the whisper sample rate.
// Non-WAV input is converted through ffmpeg first.
func (e *LocalEngine) loadSamples(ctx context.Context, path string) ([]float32, error) {
	wavPath := path
	if strings.ToLower(filepath.Ext(path)) != ".wav" {
		converted, cleanup, err := media.ConvertToWAV(ctx, path)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		wavPath = converted
	}

	b, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	samples, rate, err := audio.DecodeWAVToFloat32(b)
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if rate != whisperSampleRate {
		samples = audio.ResampleLinear(samples, rate, whisperSampleRate)
	}
	return samples, nil
}
