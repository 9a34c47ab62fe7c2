package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"nstoolkit/internal/formats"
	"nstoolkit/internal/history"
	"nstoolkit/internal/logging"
	"nstoolkit/internal/request"
	"nstoolkit/internal/services"
	"nstoolkit/internal/services/nstool"
)

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

// Option configures a Service.
type Option func(*Service)

// WithValidator replaces the default request validator.
func WithValidator(v *request.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithTryAllUnhinted controls discovery for sources whose extension gives no
// hint. When false such requests fail with CannotInferType.
func WithTryAllUnhinted(enabled bool) Option {
	return func(s *Service) {
		s.tryAll = enabled
	}
}

// WithRecorder stores one history entry per run.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithLockDir enables per-output-directory extraction locks under dir.
func WithLockDir(dir string) Option {
	return func(s *Service) {
		s.lockDir = dir
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service implements describe and extract.
type Service struct {
	table      *formats.Table
	invoker    nstool.Invoker
	dispatcher *Dispatcher
	validator  *request.Validator
	tryAll     bool
	recorder   Recorder
	lockDir    string
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs a Service. A nil table uses the default format table.
func NewService(table *formats.Table, invoker nstool.Invoker, opts ...Option) (*Service, error) {
	if invoker == nil {
		return nil, errors.New("processor invoker required")
	}
	if table == nil {
		table = formats.Default()
	}
	s := &Service{
		table:   table,
		invoker: invoker,
		tryAll:  true,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = request.NewValidator(table)
	}
	s.logger = logging.NewComponentLogger(s.logger, "service")
	s.dispatcher = NewDispatcher(invoker, s.logger)
	return s, nil
}

// Describe reports the structure of the source file.
func (s *Service) Describe(ctx context.Context, in request.Input) Result {
	return s.run(ctx, request.OperationDescribe, in)
}

// Extract unpacks the source file into the output directory.
func (s *Service) Extract(ctx context.Context, in request.Input) Result {
	return s.run(ctx, request.OperationExtract, in)
}

// Candidates returns the types discovery would try for source, or a
// CannotInferType error when the extension gives no hint and unhinted
// discovery is disabled.
func (s *Service) Candidates(source string) ([]formats.Tag, error) {
	ordered := s.table.Order(filepath.Base(source))
	if len(ordered) > 0 {
		return ordered, nil
	}
	if !s.tryAll {
		return nil, request.CannotInferType(source)
	}
	return s.table.Tags(), nil
}

func (s *Service) run(ctx context.Context, op request.Operation, in request.Input) Result {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	started := s.now()
	source := in.Source.OrElse("")
	logger := s.logger.With(
		logging.String(logging.FieldRunID, runID),
		logging.String("operation", string(op)),
		logging.String(logging.FieldSource, source),
	)

	entry := history.Entry{RunID: runID, Operation: string(op), Source: source, StartedAt: started}
	if declared, ok := in.Type.Get(); ok {
		entry.DeclaredType = declared
	}

	res := s.execute(ctx, logger, op, in, &entry)
	res.RunID = runID

	entry.DetectedType = string(res.DetectedType)
	entry.Attempts = res.Attempts
	entry.Error = res.Error
	entry.ErrorMessage = res.ErrorMessage
	entry.Warnings = len(res.Warnings)
	entry.FinishedAt = s.now()
	s.record(ctx, logger, entry)

	if res.Error {
		logger.Info("request failed",
			logging.Int("attempts", res.Attempts),
			logging.String("error_message", res.ErrorMessage),
		)
	} else {
		logger.Info("request completed",
			logging.Int("attempts", res.Attempts),
			logging.String("detected_type", string(res.DetectedType)),
			logging.Int("warnings", len(res.Warnings)),
		)
	}
	return res
}

func (s *Service) execute(ctx context.Context, logger *slog.Logger, op request.Operation, in request.Input, entry *history.Entry) Result {
	opts, err := s.validator.Validate(op, in)
	if err != nil {
		logger.Debug("request rejected", logging.Error(err))
		return ErrorResult(err)
	}

	var candidates []formats.Tag
	if opts.Discovery() {
		candidates, err = s.Candidates(opts.Source)
		if err != nil {
			return ErrorResult(err)
		}
		entry.Candidates = formats.TagNames(candidates)
	}

	if op == request.OperationExtract {
		release, err := lockOutput(s.lockDir, opts.OutputDirectory)
		if err != nil {
			return ErrorResult(err)
		}
		defer func() {
			if err := release(); err != nil {
				logger.Warn("failed to release output lock", logging.Error(err))
			}
		}()
	}

	if tag, ok := opts.DeclaredType.Get(); ok {
		entry.Candidates = []string{string(tag)}
		return AggregateSingle(s.invoker.Invoke(ctx, opts, tag))
	}

	term := s.dispatcher.Run(ctx, opts, candidates)
	logger.Debug("dispatch finished",
		logging.String("state", term.State.String()),
		logging.Int("attempts", term.Attempts),
	)
	return Aggregate(term, opts.Source)
}

func (s *Service) record(ctx context.Context, logger *slog.Logger, entry history.Entry) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("failed to record run history", logging.Error(err))
	}
}
