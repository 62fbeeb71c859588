package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/floostack/transcoder/ffmpeg"
	"github.com/hbomb79/vidinfo/pkg/logger"
)

var log = logger.Get("Probe")

var (
	ErrFileNotFound = errors.New("file not found")
	ErrProbeFailed  = errors.New("ffprobe failed")
)

type Config struct {
	// Path to the ffprobe binary. When empty, a binary next to the
	// executable is preferred before falling back to PATH.
	FfprobeBinPath string `yaml:"ffprobe_path" env:"WGP_FFPROBE"`

	// When enabled ffprobe decodes the entire video stream to count
	// the frames exactly. Disabling this uses the frame count recorded
	// in the container (if any), which is much faster for large files.
	CountFrames bool `yaml:"count_frames" env:"VIDINFO_COUNT_FRAMES" env-default:"true"`
}

// Prober runs ffprobe against files on the local file system.
type Prober struct {
	binPath     string
	countFrames bool
}

func New(config Config) *Prober {
	return &Prober{
		binPath:     ResolveBinary(config.FfprobeBinPath),
		countFrames: config.CountFrames,
	}
}

func (p *Prober) BinPath() string { return p.binPath }

// ffprobeOutput is the JSON emitted by ffprobe for the entries we request. The
// numeric-ish fields are kept raw because ffprobe reports some of them as
// strings and omits them entirely when unavailable.
type ffprobeOutput struct {
	Streams []struct {
		Width        int             `json:"width"`
		Height       int             `json:"height"`
		RFrameRate   string          `json:"r_frame_rate"`
		NbReadFrames json.RawMessage `json:"nb_read_frames"`
	} `json:"streams"`
	Format struct {
		Duration json.RawMessage `json:"duration"`
	} `json:"format"`
}

// Probe extracts the MediaInfo for the file at path. The path must point to an
// existing regular file, otherwise ErrFileNotFound is returned without ffprobe
// being started. Any failure of ffprobe itself (missing binary, non-zero exit,
// unparseable output) is reported as ErrProbeFailed.
func (p *Prober) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
		log.Emit(logger.WARNING, "File not found: %s\n", path)
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	var (
		info *MediaInfo
		err  error
	)
	if p.countFrames {
		info, err = p.probeCountingFrames(ctx, path)
	} else {
		info, err = p.probeContainer(path)
	}

	if err != nil {
		log.Emit(logger.ERROR, "ffprobe error for %s: %v\n", path, err)
		return nil, err
	}

	log.Emit(logger.DEBUG, "Probed %s: %+v\n", path, info)
	return info, nil
}

func (p *Prober) probeCountingFrames(ctx context.Context, path string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, p.binPath,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_frames",
		"-show_entries", "stream=width,height,r_frame_rate,nb_read_frames",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	output, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %v: %s", ErrProbeFailed, err, msg)
		}

		return nil, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	return parseOutput(output)
}

// probeContainer reads the metadata the container already holds, without
// decoding any frames. The frame count is always derived from the duration
// and frame rate.
func (p *Prober) probeContainer(path string) (*MediaInfo, error) {
	metadata, err := ffmpeg.New(&ffmpeg.Config{FfprobeBinPath: p.binPath}).Input(path).GetMetadata()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	info := &MediaInfo{}
	if format := metadata.GetFormat(); format != nil {
		info.Duration = parseFloatOrZero(format.GetDuration())
	}

	for _, stream := range metadata.GetStreams() {
		if stream.GetCodecType() != "video" {
			continue
		}

		info.Width = stream.GetWidth()
		info.Height = stream.GetHeight()
		info.FPS = ParseFrameRate(stream.GetRFrameRrate())
		break
	}

	info.DeriveFrames()
	return info, nil
}

func parseOutput(output []byte) (*MediaInfo, error) {
	output = bytes.TrimSpace(output)
	if len(output) == 0 {
		output = []byte("{}")
	}

	if output[0] != '{' {
		return nil, fmt.Errorf("%w: output is not a JSON object", ErrProbeFailed)
	}

	var result ffprobeOutput
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("%w: malformed output: %v", ErrProbeFailed, err)
	}

	info := &MediaInfo{
		Duration: parseFloatOrZero(string(result.Format.Duration)),
	}
	if len(result.Streams) > 0 {
		stream := result.Streams[0]
		info.Width = stream.Width
		info.Height = stream.Height
		info.FPS = ParseFrameRate(stream.RFrameRate)
		info.Frames = parseOptionalInt(string(stream.NbReadFrames))
	}

	info.DeriveFrames()
	return info, nil
}
