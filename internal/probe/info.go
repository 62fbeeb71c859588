package probe

import (
	"math"
	"strconv"
	"strings"
)

// MediaInfo is the subset of ffprobe output we report on for
// the first video stream of a file.
type MediaInfo struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Frames   *int    `json:"frames"`
	Duration float64 `json:"duration"`
}

// DeriveFrames fills in Frames from Duration and FPS when ffprobe did
// not report a frame count and both are positive.
func (info *MediaInfo) DeriveFrames() {
	if info.Frames != nil {
		return
	}

	if frames, ok := deriveFrames(info.Duration, info.FPS); ok {
		info.Frames = &frames
	}
}

func deriveFrames(duration float64, fps float64) (int, bool) {
	if duration <= 0 || fps <= 0 {
		return 0, false
	}

	return int(math.RoundToEven(duration * fps)), true
}

// ParseFrameRate converts an ffprobe rational ("30000/1001") into frames
// per second. A zero denominator, or any malformed input, yields 0.
func ParseFrameRate(rate string) float64 {
	parts := strings.Split(strings.TrimSpace(rate), "/")
	if len(parts) != 2 {
		return 0
	}

	num, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0
	}
	den, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || den == 0 {
		return 0
	}

	return float64(num) / float64(den)
}

// parseOptionalInt parses the frame counts ffprobe reports as strings. A
// missing or non-numeric count is unknown rather than an error.
func parseOptionalInt(raw string) *int {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	if raw == "" || raw == "null" {
		return nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}

	return &v
}

func parseFloatOrZero(raw string) float64 {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return v
}
