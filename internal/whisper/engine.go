package whisper

import "context"

// Segment is a time-bounded span of transcribed text. Times are seconds from
// the start of the audio.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is a full transcription as produced by an engine.
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

// Engine transcribes a single audio file. Implementations are safe for
// concurrent use; a loaded engine is shared by all requests for its model.
type Engine interface {
	Transcribe(ctx context.Context, path string) (*Result, error)
	Close() error
}

// ModelSpec describes one model the registry can load.
type ModelSpec struct {
	Size string // model size token, e.g. "base" or "large"
	Path string // ggml model file for the local backend
}

// LoadFunc constructs an Engine for a model. Loading a local model is
// expensive (seconds, hundreds of MB read from disk); the registry calls
// this at most once per model unless it fails.
type LoadFunc func(ctx context.Context, spec ModelSpec) (Engine, error)
