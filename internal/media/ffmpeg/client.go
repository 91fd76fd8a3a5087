package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"vrecon/internal/services"
)

var commandContext = exec.CommandContext

// TranscodeRequest describes one time-window extraction with encoding.
type TranscodeRequest struct {
	InputPath  string
	StartTime  float64
	Duration   float64
	Profile    Profile
	OutputPath string
}

// Transcoder extracts and encodes one time window of an asset.
type Transcoder interface {
	Transcode(ctx context.Context, req TranscodeRequest) error
}

// Concatenator joins already-encoded inputs into one container without
// re-encoding. Inputs must share compatible stream parameters.
type Concatenator interface {
	Concat(ctx context.Context, orderedPaths []string, outputPath string) error
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

// CLI wraps the ffmpeg command-line tool.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Transcode runs ffmpeg over the request's time window.
func (c *CLI) Transcode(ctx context.Context, req TranscodeRequest) error {
	if req.InputPath == "" {
		return services.Wrap(services.ErrTranscode, "transcode", "args", "input path required", nil)
	}
	if req.OutputPath == "" {
		return services.Wrap(services.ErrTranscode, "transcode", "args", "output path required", nil)
	}

	args := BuildTranscodeArgs(req)
	if err := c.run(ctx, args); err != nil {
		return services.Wrap(services.ErrTranscode, "transcode", "ffmpeg", filepath.Base(req.OutputPath), err)
	}
	return nil
}

// Concat joins inputs in order using the concat demuxer and a list file
// placed next to the output.
func (c *CLI) Concat(ctx context.Context, orderedPaths []string, outputPath string) error {
	if len(orderedPaths) == 0 {
		return services.Wrap(services.ErrConcat, "concat", "args", "no inputs", nil)
	}
	if outputPath == "" {
		return services.Wrap(services.ErrConcat, "concat", "args", "output path required", nil)
	}

	listPath := outputPath + ".list.txt"
	if err := writeConcatList(listPath, orderedPaths); err != nil {
		return services.Wrap(services.ErrConcat, "concat", "list file", "", err)
	}
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", outputPath,
	}
	if err := c.run(ctx, args); err != nil {
		return services.Wrap(services.ErrConcat, "concat", "ffmpeg", filepath.Base(outputPath), err)
	}
	return nil
}

// Run executes ffmpeg with the provided raw arguments. Used by the repair
// strategies, which own their full argument lists.
func (c *CLI) Run(ctx context.Context, args []string) error {
	return c.run(ctx, args)
}

func (c *CLI) run(ctx context.Context, args []string) error {
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := tailLines(stderr.String(), 5)
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(err, ctxErr)
		}
		if detail != "" {
			return fmt.Errorf("%w: %s", err, detail)
		}
		return err
	}
	return nil
}

// BuildTranscodeArgs constructs the ffmpeg argv (minus the binary) for a
// segment extraction. Copy-mode profiles skip re-encoding entirely.
func BuildTranscodeArgs(req TranscodeRequest) []string {
	args := []string{
		"-ss", formatSeconds(req.StartTime),
		"-t", formatSeconds(req.Duration),
		"-i", req.InputPath,
	}
	if req.Profile.SkipEncode {
		args = append(args, "-c", "copy")
	} else {
		args = append(args,
			"-c:v", req.Profile.Encoder,
			"-crf", strconv.Itoa(req.Profile.CRF),
			"-preset", req.Profile.Preset(),
			"-c:a", "copy",
		)
		if req.Profile.Encoder == "hevc_nvenc" {
			args = append(args,
				"-rc", "vbr",
				"-cq", strconv.Itoa(req.Profile.CRF),
				"-b:v", "0",
				"-maxrate", "50M",
				"-bufsize", "100M",
			)
		}
	}
	return append(args, "-y", req.OutputPath)
}

func writeConcatList(listPath string, paths []string) error {
	var buf bytes.Buffer
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		fmt.Fprintf(&buf, "file '%s'\n", abs)
	}
	return os.WriteFile(listPath, buf.Bytes(), 0o644)
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}

func tailLines(output string, n int) string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

var (
	_ Transcoder   = (*CLI)(nil)
	_ Concatenator = (*CLI)(nil)
)
