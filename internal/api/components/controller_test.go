package components

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStore_RemovesDirectoryOnFailure(t *testing.T) {
	tests := []struct {
		summary string
		open    func() (io.ReadCloser, error)
	}{
		{"open fails", func() (io.ReadCloser, error) { return nil, errors.New("multipart gone") }},
		{"copy fails", func() (io.ReadCloser, error) { return io.NopCloser(failingReader{}), nil }},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			uploadDir := t.TempDir()
			controller := New(nil, uploadDir)

			path, err := controller.store("clip.mp4", tt.open)
			assert.Error(t, err)
			assert.Empty(t, path)

			entries, err := os.ReadDir(uploadDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "no upload directory is left behind")
		})
	}
}

func TestStore_KeepsBaseName(t *testing.T) {
	uploadDir := t.TempDir()
	controller := New(nil, uploadDir)

	path, err := controller.store("../../etc/clip.mp4", func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("data")), nil
	})
	require.NoError(t, err)

	assert.Equal(t, "clip.mp4", filepath.Base(path))
	assert.Equal(t, uploadDir, filepath.Dir(filepath.Dir(path)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}
