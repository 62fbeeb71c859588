package autohook

import (
	"os"

	"github.com/hbomb79/vidinfo/internal/ui"
)

// Keys of an upload Record which may carry the uploaded file's path, in the
// order they are checked.
var pathKeys = []string{"name", "path", "tempfile"}

// ResolvePath finds the filesystem path carried by a component value:
//   - a String is used directly
//   - a Record is searched for the first path-bearing key
//   - a Sequence resolves using only its first element
//
// In every case the path must exist according to exists. The boolean
// result is false when no path could be found.
func ResolvePath(value ui.Value, exists func(string) bool) (string, bool) {
	switch v := value.(type) {
	case ui.String:
		if exists(string(v)) {
			return string(v), true
		}
	case ui.Record:
		for _, key := range pathKeys {
			if s, ok := v[key].(ui.String); ok && exists(string(s)) {
				return string(s), true
			}
		}
	case ui.Sequence:
		if len(v) > 0 {
			return ResolvePath(v[0], exists)
		}
	}

	return "", false
}

func pathExists(path string) bool {
	if path == "" {
		return false
	}

	_, err := os.Stat(path)
	return err == nil
}
