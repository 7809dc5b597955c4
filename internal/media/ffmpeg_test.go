package media

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	wavenc "github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"github.com/audivox/whisperd/internal/audio"
)

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
}

func writeSourceWAV(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	data := make([]int, 44100*2) // one second of stereo silence
	enc := wavenc.NewEncoder(f, 44100, 16, 2, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func TestConvertToWAVProduces16kMono(t *testing.T) {
	requireFFmpeg(t)

	out, cleanup, err := ConvertToWAV(context.Background(), writeSourceWAV(t))
	require.NoError(t, err)
	defer cleanup()

	b, err := os.ReadFile(out)
	require.NoError(t, err)

	samples, rate, err := audio.DecodeWAVToFloat32(b)
	require.NoError(t, err)
	require.Equal(t, 16000, rate)
	require.InDelta(t, 16000, len(samples), 200) // one second, resampled

	cleanup()
	_, err = os.Stat(out)
	require.True(t, os.IsNotExist(err))
}

func TestConvertToWAVMissingInput(t *testing.T) {
	requireFFmpeg(t)

	_, _, err := ConvertToWAV(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"))
	require.Error(t, err)
}
