package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RemoteConfig points the remote engine at an OpenAI-compatible
// transcription endpoint, such as a whisper.cpp server started with
// ./server -m models/ggml-base.en.bin --port 8178.
type RemoteConfig struct {
	BaseURL string
	APIKey  string // optional; local servers need none
	Model   string // default "whisper-1"
}

// RemoteEngine transcribes by uploading the audio file to a Whisper-API
// compatible HTTP endpoint and parsing its verbose_json response.
type RemoteEngine struct {
	cfg  RemoteConfig
	http *http.Client
}

// NewRemoteEngine creates a RemoteEngine with defaults applied.
func NewRemoteEngine(cfg RemoteConfig) *RemoteEngine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8178"
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	return &RemoteEngine{
		cfg: cfg,
		http: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

func (e *RemoteEngine) Close() error { return nil }

// Transcribe sends path as a multipart upload and maps the verbose_json
// segments onto Result without reformatting the text.
func (e *RemoteEngine) Transcribe(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err = io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}
	_ = mw.WriteField("model", e.cfg.Model)
	_ = mw.WriteField("response_format", "verbose_json")
	if err = mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(e.cfg.BaseURL, "/")+"/v1/audio/transcriptions", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp struct {
		Text     string `json:"text"`
		Language string `json:"language"`
		Segments []struct {
			ID    int     `json:"id"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
			Text  string  `json:"text"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	res := &Result{
		Text:     apiResp.Text,
		Language: apiResp.Language,
		Segments: make([]Segment, 0, len(apiResp.Segments)),
	}
	for _, s := range apiResp.Segments {
		res.Segments = append(res.Segments, Segment{ID: s.ID, Start: s.Start, End: s.End, Text: s.Text})
	}
	return res, nil
}
