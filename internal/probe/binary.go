package probe

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
)

const defaultBinary = "ffprobe"

// ResolveBinary returns the ffprobe executable to use.
//
// Resolution order:
//  1. The override provided (typically WGP_FFPROBE), with '~' expanded
//  2. An ffprobe binary sitting next to the running executable
//  3. "ffprobe", leaving the lookup to PATH when the command runs
func ResolveBinary(override string) string {
	dir := ""
	if exe, err := os.Executable(); err == nil {
		dir = filepath.Dir(exe)
	}

	return resolveBinaryWithStat(override, dir, os.Stat)
}

func resolveBinaryWithStat(override string, localDir string, stat func(string) (os.FileInfo, error)) string {
	if override = strings.TrimSpace(override); override != "" {
		if expanded, err := homedir.Expand(override); err == nil {
			return expanded
		}

		return override
	}

	if localDir != "" {
		candidate := filepath.Join(localDir, localBinaryName())
		if fi, err := stat(candidate); err == nil && fi != nil && !fi.IsDir() {
			return candidate
		}
	}

	return defaultBinary
}

func localBinaryName() string {
	if runtime.GOOS == "windows" {
		return defaultBinary + ".exe"
	}

	return defaultBinary
}
