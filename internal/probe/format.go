package probe

import (
	"fmt"
	"strconv"
)

// Format renders a one-line summary of the info provided, prefixed
// with the label. A nil info renders as "[label] cannot read info".
func Format(label string, info *MediaInfo) string {
	if info == nil {
		return fmt.Sprintf("[%s] cannot read info", label)
	}

	frames := "?"
	if info.Frames != nil {
		frames = strconv.Itoa(*info.Frames)
	} else if derived, ok := deriveFrames(info.Duration, info.FPS); ok {
		frames = strconv.Itoa(derived)
	}

	return fmt.Sprintf("[%s] Frames: %s | Framerate: %.3f fps | Resolution: %d × %d", label, frames, info.FPS, info.Width, info.Height)
}
