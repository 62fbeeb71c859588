package internal_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/hbomb79/vidinfo/internal"
	"github.com/hbomb79/vidinfo/internal/api"
	"github.com/hbomb79/vidinfo/internal/probe"
	"github.com/hbomb79/vidinfo/internal/ui"
	"github.com/hbomb79/vidinfo/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetMinLoggingLevel(logger.VERBOSE.Level())
}

const ffprobeOutput = `{
	"streams": [{"width": 1920, "height": 1080, "r_frame_rate": "30/1", "nb_read_frames": "300"}],
	"format": {"duration": "10.000000"}
}`

// The autohook is loaded once per process, so every test in this package
// shares the app (and the fake ffprobe it was loaded with).
func newApp(t *testing.T) *internal.App {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffprobe relies on a POSIX shell")
	}

	bin := filepath.Join(t.TempDir(), "ffprobe")
	script := fmt.Sprintf("#!/bin/sh\ncat <<'EOF'\n%s\nEOF\n", ffprobeOutput)
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	return internal.New(internal.Config{
		Probe:      probe.Config{FfprobeBinPath: bin, CountFrames: true},
		RestConfig: api.RestConfig{HostAddr: "127.0.0.1:0", UploadDir: t.TempDir()},
		LogLevel:   "verbose",
	})
}

func TestApp(t *testing.T) {
	app := newApp(t)

	t.Run("probe files", func(t *testing.T) {
		video := filepath.Join(t.TempDir(), "clip.mp4")
		require.NoError(t, os.WriteFile(video, []byte("x"), 0o644))

		summaries := app.ProbeFiles(video, filepath.Join(t.TempDir(), "missing.mp4"))
		require.Len(t, summaries, 1)
		assert.Equal(t, "clip.mp4", summaries[0].Label)
		assert.Equal(t, video, summaries[0].Path)
		assert.Equal(t, "[clip.mp4] Frames: 300 | Framerate: 30.000 fps | Resolution: 1920 × 1080", summaries[0].Line)

		// Each file is uploaded to a video component of its own
		comps := app.Host().Components()
		require.Len(t, comps, 2)
		for _, comp := range comps {
			assert.Equal(t, ui.VideoKind, comp.Kind())
			assert.Equal(t, 1, comp.HandlerCount(ui.UploadTrigger), "autohook binds to every video component")
		}
	})

	t.Run("watch requires an existing directory", func(t *testing.T) {
		err := app.Watch(context.Background(), filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})

	t.Run("serve creates default components and stops with the context", func(t *testing.T) {
		before := len(app.Host().Components())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- app.Serve(ctx) }()

		assert.Eventually(t, func() bool { return len(app.Host().Components()) == before+2 }, 5*time.Second, 10*time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Fatal("serve did not stop after cancellation")
		}
	})
}
