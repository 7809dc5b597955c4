package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr         string
	Backend      string // "local" (whisper.cpp in-process) or "remote"
	ModelBase    string
	ModelLarge   string
	RemoteURL    string
	RemoteAPIKey string
	RemoteModel  string
	ScratchDir   string // empty means the system temp directory
	MaxUploadMB  int64
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func Load() Config {
	return Config{
		Addr:         getenv("WHISPERD_ADDR", ":8080"),
		Backend:      getenv("WHISPERD_BACKEND", "local"),
		ModelBase:    getenv("WHISPERD_MODEL_BASE", "./models/ggml-base.bin"),
		ModelLarge:   getenv("WHISPERD_MODEL_LARGE", "./models/ggml-large-v3.bin"),
		RemoteURL:    getenv("WHISPERD_REMOTE_URL", "http://localhost:8178"),
		RemoteAPIKey: getenv("WHISPERD_REMOTE_API_KEY", ""),
		RemoteModel:  getenv("WHISPERD_REMOTE_MODEL", "whisper-1"),
		ScratchDir:   getenv("WHISPERD_SCRATCH_DIR", ""),
		MaxUploadMB:  getenvInt64("WHISPERD_MAX_UPLOAD_MB", 32),
	}
}
