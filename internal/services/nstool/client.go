package nstool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nstoolkit/internal/formats"
	"nstoolkit/internal/logging"
	"nstoolkit/internal/request"
	"nstoolkit/internal/services"
)

// Invoker runs the processor once for a candidate type.
type Invoker interface {
	Invoke(ctx context.Context, opts request.Options, tag formats.Tag) Outcome
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithTimeout bounds each processor run. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMismatchPatterns replaces the regular expressions used to recognise
// wrong-type errors.
func WithMismatchPatterns(patterns []string) Option {
	return func(c *Client) {
		c.patterns = append([]string(nil), patterns...)
	}
}

// WithLogger sets the logger used for per-attempt diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps nstool CLI interactions.
type Client struct {
	binary     string
	timeout    time.Duration
	patterns   []string
	exec       Executor
	classifier *Classifier
	logger     *slog.Logger
}

// New constructs an nstool client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("nstool binary required")
	}
	client := &Client{
		binary: binary,
		exec:   commandExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	classifier, err := NewClassifier(client.patterns)
	if err != nil {
		return nil, err
	}
	client.classifier = classifier
	client.logger = logging.NewComponentLogger(client.logger, "nstool")
	return client, nil
}

// Parameters returns the full parameter list for one attempt, binary first.
func (c *Client) Parameters(opts request.Options, tag formats.Tag) []string {
	return append([]string{c.binary}, BuildArgs(opts, tag)...)
}

// Invoke runs the processor with tag as the type hint and classifies the run.
func (c *Client) Invoke(ctx context.Context, opts request.Options, tag formats.Tag) Outcome {
	params := c.Parameters(opts, tag)
	args := params[1:]

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	out, err := c.exec.Run(runCtx, c.binary, args)
	elapsed := time.Since(started)

	var outcome Outcome
	if err != nil {
		outcome = Outcome{Kind: OutcomeFailure, Message: c.runError(tag, err).Error()}
	} else {
		outcome = c.classifier.Classify(out)
	}
	outcome.Tag = tag
	outcome.Parameters = params

	logger := c.logger
	if runID, ok := services.RunIDFromContext(ctx); ok {
		logger = logger.With(logging.String(logging.FieldRunID, runID))
	}
	logger.Debug("processor attempt finished", logging.Args(
		logging.String(logging.FieldCandidate, string(tag)),
		logging.String(logging.FieldOutcome, outcome.Kind.String()),
		logging.Int("exit_code", out.ExitCode),
		logging.Duration("elapsed", elapsed),
		logging.String("message", outcome.Message),
	)...)
	return outcome
}

func (c *Client) runError(tag formats.Tag, err error) error {
	operation := fmt.Sprintf("type %s", tag)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "nstool", operation, fmt.Sprintf("no result after %s", c.timeout), nil)
	case errors.Is(err, context.Canceled):
		return services.Wrap(services.ErrCanceled, "nstool", operation, "", nil)
	default:
		return services.Wrap(services.ErrExternalTool, "nstool", operation, "", err)
	}
}

// BuildArgs renders the processor arguments for opts with tag as the type
// hint. The source path is always last.
func BuildArgs(opts request.Options, tag formats.Tag) []string {
	args := []string{"--json"}
	switch opts.Operation {
	case request.OperationExtract:
		args = append(args, "--type", string(tag), "--extract", opts.OutputDirectory)
		if selector, ok := opts.FileSelector.Get(); ok {
			args = append(args, "--file", selector)
		}
	default:
		args = append(args, "--fstree", "--type", string(tag))
	}
	if opts.Flags.ShowKeys {
		args = append(args, "--showkeys")
	}
	if opts.Flags.ShowLayout {
		args = append(args, "--showlayout")
	}
	if opts.Flags.Verbose {
		args = append(args, "--verbose")
	}
	return append(args, opts.Source)
}
