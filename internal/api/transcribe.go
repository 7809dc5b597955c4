package api

import (
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

var allowedExtensions = map[string]bool{
	".mp3": true,
	".wav": true,
	".m4a": true,
}

func allowedExtensionList() string {
	exts := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

// transcribe returns the handler for one transcription route. The flow is
// validate, acquire model, persist upload, transcribe, release, respond;
// the scratch file is released on every path once persistence succeeded.
func (rt *Router) transcribe(model string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rt.registry.Has(model) {
			writeError(w, http.StatusBadRequest,
				"Invalid model size. Supported sizes: "+strings.Join(rt.registry.Identifiers(), ", "))
			return
		}

		if err := r.ParseMultipartForm(rt.maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "No file provided")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "No file provided")
			return
		}
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !allowedExtensions[ext] {
			writeError(w, http.StatusBadRequest,
				"File type not supported. Allowed types: "+allowedExtensionList())
			return
		}

		engine, err := rt.registry.Acquire(r.Context(), model)
		if err != nil {
			log.Error().Err(err).Str("model", model).Msg("model acquisition failed")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			log.Error().Err(err).Msg("failed to read upload")
			writeError(w, http.StatusInternalServerError, "failed to read upload: "+err.Error())
			return
		}

		path, err := rt.store.Persist(data, ext)
		if err != nil {
			log.Error().Err(err).Msg("failed to persist upload")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		// Persist succeeded, so from here every exit releases the file.
		defer rt.store.Release(path)

		result, err := engine.Transcribe(r.Context(), path)
		if err != nil {
			log.Error().Err(err).Str("model", model).Str("file", header.Filename).Msg("transcription failed")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		log.Info().
			Str("model", model).
			Str("file", header.Filename).
			Int("segments", len(result.Segments)).
			Msg("transcription complete")
		writeJSON(w, http.StatusOK, result)
	}
}
