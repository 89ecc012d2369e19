// Package pipeline runs the external media pipeline that turns a VOD into clips.
//
// The pipeline itself (download, highlight detection, captioning, upload) lives
// outside this repository. This package only invokes it and reads back the
// clip manifest it prints.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	maxManifestBytes = 1 << 20
	maxStderrBytes   = 4 * 1024
)

// ErrNoCommand is returned when no pipeline command is configured.
var ErrNoCommand = errors.New("pipeline command is not configured")

// Request describes one job handed to the pipeline.
type Request struct {
	JobID    string
	URL      string
	MaxClips int
}

// Clip is one entry of the manifest printed by the pipeline.
type Clip struct {
	Path string  `json:"path"`
	Hook *string `json:"hook,omitempty"`
}

// Runner produces clips for a job.
type Runner interface {
	Run(ctx context.Context, req Request) ([]Clip, error)
}

// ExecOptions configures Exec.
type ExecOptions struct {
	// Command is the program and its leading arguments.
	Command []string
	// Timeout bounds one invocation. Zero means no extra bound beyond ctx.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Exec runs the pipeline as a child process:
//
//	<command...> <job-id> <url> <max-clips>
//
// The same values are exported as STREAMCLIP_JOB_ID, STREAMCLIP_URL and
// MAX_CLIPS. On success the process prints a JSON array of
// {"path": "...", "hook": "..."} objects on stdout, in clip order.
type Exec struct {
	command []string
	timeout time.Duration
	logger  *slog.Logger
}

var _ Runner = (*Exec)(nil)

// NewExec constructs an Exec.
func NewExec(opts ExecOptions) (*Exec, error) {
	if len(opts.Command) == 0 || strings.TrimSpace(opts.Command[0]) == "" {
		return nil, ErrNoCommand
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Exec{
		command: append([]string(nil), opts.Command...),
		timeout: opts.Timeout,
		logger:  logger.With("component", "pipeline"),
	}, nil
}

// Run invokes the pipeline for req and parses its manifest.
func (e *Exec) Run(ctx context.Context, req Request) ([]Clip, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	maxClips := strconv.Itoa(req.MaxClips)
	args := append(append([]string(nil), e.command[1:]...), req.JobID, req.URL, maxClips)

	// #nosec G204 -- the command is operator-configured; job values are passed as discrete args
	cmd := exec.CommandContext(ctx, e.command[0], args...)
	cmd.Env = append(os.Environ(),
		"STREAMCLIP_JOB_ID="+req.JobID,
		"STREAMCLIP_URL="+req.URL,
		"MAX_CLIPS="+maxClips,
	)
	cmd.WaitDelay = 5 * time.Second

	stdout := &limitedBuffer{max: maxManifestBytes}
	stderr := &tailBuffer{max: maxStderrBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	e.logger.InfoContext(ctx, "pipeline started", "job_id", req.JobID, "max_clips", req.MaxClips)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("pipeline for job %s: %w", req.JobID, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("pipeline failed (exit %d): %s", exitErr.ExitCode(), stderr.String())
		}
		return nil, fmt.Errorf("execute pipeline: %w", err)
	}
	if stdout.overflow {
		return nil, fmt.Errorf("pipeline manifest exceeds %d bytes", maxManifestBytes)
	}

	clips, err := ParseManifest(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "pipeline finished",
		"job_id", req.JobID,
		"clips", len(clips),
		"elapsed", time.Since(start),
	)
	return clips, nil
}

// ParseManifest decodes the pipeline's stdout. Leading log lines are tolerated:
// decoding starts at the last line that opens a JSON array.
func ParseManifest(out []byte) ([]Clip, error) {
	body := bytes.TrimSpace(out)
	if i := bytes.LastIndex(body, []byte("\n[")); i >= 0 {
		body = body[i+1:]
	}
	if len(body) == 0 || body[0] != '[' {
		return nil, errors.New("pipeline printed no clip manifest")
	}

	var clips []Clip
	if err := json.Unmarshal(body, &clips); err != nil {
		return nil, fmt.Errorf("decode clip manifest: %w", err)
	}
	for i := range clips {
		clips[i].Path = strings.TrimSpace(clips[i].Path)
		if clips[i].Hook != nil {
			if h := strings.TrimSpace(*clips[i].Hook); h == "" {
				clips[i].Hook = nil
			} else {
				clips[i].Hook = &h
			}
		}
	}
	return clips, nil
}

// limitedBuffer keeps the first max bytes and records whether more arrived.
type limitedBuffer struct {
	bytes.Buffer
	max      int
	overflow bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.Len(); room < len(p) {
		b.overflow = true
		if room > 0 {
			b.Buffer.Write(p[:room])
		}
		return len(p), nil
	}
	return b.Buffer.Write(p)
}

// tailBuffer keeps the last max bytes written.
type tailBuffer struct {
	buf []byte
	max int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return strings.TrimSpace(string(b.buf))
}
