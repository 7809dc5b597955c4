// Package media converts uploaded audio into the 16 kHz mono WAV that
// whisper.cpp expects, by shelling out to ffmpeg.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ConvertToWAV transcodes src into a 16 kHz mono WAV file in the system temp
// directory. The returned cleanup removes the converted file and must be
// called once the samples have been consumed.
func ConvertToWAV(ctx context.Context, src string) (string, func(), error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	out := filepath.Join(os.TempDir(), "convert-"+uuid.NewString()+".wav")
	cmd := exec.CommandContext(ctx, ffmpeg,
		"-y",
		"-i", src,
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(out)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", nil, fmt.Errorf("ffmpeg convert: %s", lastLine(msg))
		}
		return "", nil, fmt.Errorf("ffmpeg convert: %w", err)
	}
	return out, func() { _ = os.Remove(out) }, nil
}

// lastLine keeps error messages short; ffmpeg prints its banner to stderr.
func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
