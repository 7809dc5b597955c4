package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/audivox/whisperd/internal/config"
	"github.com/audivox/whisperd/internal/scratch"
	"github.com/audivox/whisperd/internal/whisper"
)

// Model identifiers behind the two transcription routes.
const (
	ModelFast     = "base"
	ModelAccurate = "large"
)

type Router struct {
	registry       *whisper.Registry
	store          *scratch.Store
	maxUploadBytes int64
}

func NewRouter(registry *whisper.Registry, store *scratch.Store, cfg config.Config) *Router {
	return &Router{
		registry:       registry,
		store:          store,
		maxUploadBytes: cfg.MaxUploadMB << 20,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/", rt.Status)
	r.Get("/healthz", rt.Healthz)
	r.Post("/transcribe/fast", rt.transcribe(ModelFast))
	r.Post("/transcribe/accurate", rt.transcribe(ModelAccurate))

	return r
}

// Status reports which models are currently resident.
func (rt *Router) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Audio Transcription API is running",
		"endpoints": map[string]string{
			"/transcribe/fast":     "Quick transcription using the base model",
			"/transcribe/accurate": "High-accuracy transcription using the large model",
		},
		"model_status": rt.registry.Status(),
	})
}

func (rt *Router) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
