package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hbomb79/vidinfo/internal/event"
	"github.com/hbomb79/vidinfo/internal/ui"
	"github.com/hbomb79/vidinfo/internal/watch"
	"github.com/hbomb79/vidinfo/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetMinLoggingLevel(logger.VERBOSE.Level())
}

func defaultConfig(dir string) watch.Config {
	return watch.Config{
		Path:         dir,
		Extensions:   []string{".mp4", "mkv"},
		SettleMillis: 10,
		Workers:      2,
	}
}

// recorder binds to the watch component the same way an extension would
type recorder struct {
	sync.Mutex
	values []ui.Value
}

func (r *recorder) handle(v ui.Value) {
	r.Lock()
	defer r.Unlock()

	r.values = append(r.values, v)
}

func (r *recorder) paths() []string {
	r.Lock()
	defer r.Unlock()

	out := make([]string, 0, len(r.values))
	for _, v := range r.values {
		if seq, ok := v.(ui.Sequence); ok && len(seq) == 1 {
			if s, ok := seq[0].(ui.String); ok {
				out = append(out, string(s))
			}
		}
	}

	return out
}

// tempDir returns a temporary directory with symlinks resolved, matching
// the paths reported by the watcher.
func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	return dir
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestNew_ValidatesPath(t *testing.T) {
	host := ui.NewHost(event.New())

	_, err := watch.New(defaultConfig(""), host)
	assert.Error(t, err)

	_, err = watch.New(defaultConfig(filepath.Join(t.TempDir(), "missing")), host)
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.mp4")
	writeFile(t, file)
	_, err = watch.New(defaultConfig(file), host)
	assert.Error(t, err)
}

func TestNew_CreatesComponentInsideBlocks(t *testing.T) {
	bus := event.New()
	host := ui.NewHost(bus)

	exits := 0
	bus.RegisterHandlerFunction(event.BLOCKS_EXIT, func(event.Event, event.Payload) { exits++ })

	dir := tempDir(t)
	service, err := watch.New(defaultConfig(dir), host)
	require.NoError(t, err)

	comp := service.Component()
	assert.Equal(t, ui.FilesKind, comp.Kind())
	assert.Equal(t, filepath.Base(dir), comp.DisplayLabel())
	assert.Equal(t, 1, exits)
}

func TestEnqueue_FiltersAndDeduplicates(t *testing.T) {
	dir := tempDir(t)
	service, err := watch.New(defaultConfig(dir), ui.NewHost(event.New()))
	require.NoError(t, err)

	video, other := filepath.Join(dir, "clip.MP4"), filepath.Join(dir, "notes.txt")
	writeFile(t, video)
	writeFile(t, other)

	assert.True(t, service.Enqueue(video))
	assert.False(t, service.Enqueue(video), "already queued")
	assert.False(t, service.Enqueue(other), "extension not accepted")
	assert.False(t, service.Enqueue(filepath.Join(dir, "missing.mkv")))
	assert.False(t, service.Enqueue(dir))
}

func TestRun_ScanExistingFeedsComponent(t *testing.T) {
	dir := tempDir(t)
	video := filepath.Join(dir, "nested", "clip.mkv")
	writeFile(t, video)
	writeFile(t, filepath.Join(dir, "notes.txt"))

	config := defaultConfig(dir)
	config.ScanExisting = true
	service, err := watch.New(config, ui.NewHost(event.New()))
	require.NoError(t, err)

	rec := &recorder{}
	require.NoError(t, service.Component().Change(rec.handle))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	assert.Eventually(t, func() bool { return len(rec.paths()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{video}, rec.paths())

	cancel()
	assert.NoError(t, <-done)
}

func TestRun_NewFilesAreFedAfterSettling(t *testing.T) {
	dir := tempDir(t)
	service, err := watch.New(defaultConfig(dir), ui.NewHost(event.New()))
	require.NoError(t, err)

	rec := &recorder{}
	require.NoError(t, service.Component().Change(rec.handle))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.Run(ctx)

	// Give the watcher a moment to register before creating the file
	time.Sleep(100 * time.Millisecond)
	video := filepath.Join(dir, "new.mp4")
	writeFile(t, video)

	assert.Eventually(t, func() bool { return len(rec.paths()) >= 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, video, rec.paths()[0])
}
