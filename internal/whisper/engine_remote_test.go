package whisper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF fake audio"), 0o644))
	return path
}

func TestRemoteEngineTranscribe(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "whisper-1", r.FormValue("model"))
		require.Equal(t, "verbose_json", r.FormValue("response_format"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "clip.wav", header.Filename)

		json.NewEncoder(w).Encode(map[string]any{
			"text":     "hello world",
			"language": "en",
			"segments": []map[string]any{
				{"id": 0, "start": 0.0, "end": 1.5, "text": "hello"},
				{"id": 1, "start": 1.5, "end": 3.0, "text": "world"},
			},
		})
	}))
	defer srv.Close()

	eng := NewRemoteEngine(RemoteConfig{BaseURL: srv.URL})
	res, err := eng.Transcribe(context.Background(), writeTestAudio(t))
	require.NoError(t, err)
	require.Equal(t, "hello world", res.Text)
	require.Equal(t, "en", res.Language)
	require.Len(t, res.Segments, 2)
	require.Equal(t, Segment{ID: 1, Start: 1.5, End: 3.0, Text: "world"}, res.Segments[1])
}

func TestRemoteEngineSendsBearerToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"text": ""})
	}))
	defer srv.Close()

	eng := NewRemoteEngine(RemoteConfig{BaseURL: srv.URL, APIKey: "sk-test"})
	_, err := eng.Transcribe(context.Background(), writeTestAudio(t))
	require.NoError(t, err)
}

func TestRemoteEngineServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model is overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	eng := NewRemoteEngine(RemoteConfig{BaseURL: srv.URL})
	_, err := eng.Transcribe(context.Background(), writeTestAudio(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 503")
	require.Contains(t, err.Error(), "model is overloaded")
}

func TestRemoteEngineMissingFile(t *testing.T) {
	t.Parallel()

	eng := NewRemoteEngine(RemoteConfig{BaseURL: "http://localhost:9"})
	_, err := eng.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "open audio file")
}
