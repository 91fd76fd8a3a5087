package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"vrecon/internal/services"
)

var commandContext = exec.CommandContext

// MediaInfo is the probe summary the planner consumes.
type MediaInfo struct {
	Path     string
	Duration float64
	Width    int
	Height   int
	Codec    string
}

// Client describes probing behaviour so tests can substitute fakes.
type Client interface {
	Probe(ctx context.Context, path string) (MediaInfo, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if strings.TrimSpace(binary) != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the ffprobe command-line tool.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffprobe"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Probe inspects path and returns the planner-facing summary. Unreadable
// assets and containers without a decodable stream are reported as probe
// errors.
func (c *CLI) Probe(ctx context.Context, path string) (MediaInfo, error) {
	result, err := Inspect(ctx, c.binary, path)
	if err != nil {
		return MediaInfo{}, services.Wrap(services.ErrProbe, "probe", "inspect", path, err)
	}

	info := MediaInfo{Path: path, Duration: result.DurationSeconds()}
	video, ok := result.PrimaryVideoStream()
	if !ok {
		return MediaInfo{}, services.Wrap(services.ErrProbe, "probe", "inspect", "no decodable video stream in "+path, nil)
	}
	info.Width = video.Width
	info.Height = video.Height
	info.Codec = video.CodecName
	return info, nil
}

var _ Client = (*CLI)(nil)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := commandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// PrimaryVideoStream returns the first video stream, if any.
func (r Result) PrimaryVideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	value := parseFloat(r.Format.Duration)
	if math.IsNaN(value) {
		return 0
	}
	return value
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
