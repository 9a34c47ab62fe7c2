package dispatch_test

import (
	"context"
	"errors"
	"sync"

	"nstoolkit/internal/formats"
	"nstoolkit/internal/history"
	"nstoolkit/internal/request"
	"nstoolkit/internal/services/nstool"
)

const mismatchMessage = "header is corrupted"

// scriptedInvoker answers with a canned outcome per tag and reports a type
// mismatch for every tag it has no script for.
type scriptedInvoker struct {
	outcomes map[formats.Tag]nstool.Outcome
	calls    []formats.Tag
	opts     []request.Options
}

func (s *scriptedInvoker) Invoke(_ context.Context, opts request.Options, tag formats.Tag) nstool.Outcome {
	s.calls = append(s.calls, tag)
	s.opts = append(s.opts, opts)
	outcome, ok := s.outcomes[tag]
	if !ok {
		outcome = nstool.Outcome{Kind: nstool.OutcomeTypeMismatch, Message: mismatchMessage}
	}
	outcome.Tag = tag
	outcome.Parameters = append([]string{"nstool"}, nstool.BuildArgs(opts, tag)...)
	return outcome
}

func success(payload string, warnings ...string) nstool.Outcome {
	return nstool.Outcome{Kind: nstool.OutcomeSuccess, Payload: []byte(payload), Warnings: warnings}
}

func failure(message string) nstool.Outcome {
	return nstool.Outcome{Kind: nstool.OutcomeFailure, Message: message}
}

type fakeAccess struct {
	unreadable map[string]bool
	unwritable map[string]bool
	checks     int
}

func (f *fakeAccess) Readable(path string) error {
	f.checks++
	if f.unreadable[path] {
		return errors.New("permission denied")
	}
	return nil
}

func (f *fakeAccess) WritableDir(path string) error {
	f.checks++
	if f.unwritable[path] {
		return errors.New("read-only file system")
	}
	return nil
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
	err     error
}

func (m *memoryRecorder) Record(_ context.Context, entry history.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}
