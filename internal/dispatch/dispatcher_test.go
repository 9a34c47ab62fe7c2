package dispatch_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"nstoolkit/internal/dispatch"
	"nstoolkit/internal/formats"
	"nstoolkit/internal/logging"
	"nstoolkit/internal/request"
	"nstoolkit/internal/services/nstool"
)

var describeOpts = request.Options{Operation: request.OperationDescribe, Source: "/games/title.bin"}

func TestDispatcherStopsAtFirstSuccess(t *testing.T) {
	candidates := formats.Default().Tags()
	for k := 1; k <= len(candidates); k++ {
		t.Run(fmt.Sprintf("success_at_%d", k), func(t *testing.T) {
			winner := candidates[k-1]
			invoker := &scriptedInvoker{outcomes: map[formats.Tag]nstool.Outcome{
				winner: success(`{"error":false}`),
			}}
			term := dispatch.NewDispatcher(invoker, logging.NewNop()).Run(context.Background(), describeOpts, candidates)

			if term.State != dispatch.StateSucceeded {
				t.Fatalf("expected succeeded, got %s", term.State)
			}
			if term.Attempts != k || len(invoker.calls) != k {
				t.Fatalf("expected %d calls, got attempts=%d calls=%d", k, term.Attempts, len(invoker.calls))
			}
			if diff := cmp.Diff(candidates[:k], invoker.calls); diff != "" {
				t.Fatalf("call order mismatch (-want +got):\n%s", diff)
			}
			var want []string
			for _, tag := range candidates[:k-1] {
				want = append(want, fmt.Sprintf("[%s] %s", tag, mismatchMessage))
			}
			if diff := cmp.Diff(want, term.Warnings, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
			}
			detected, ok := term.Detected()
			if !ok || detected != winner {
				t.Fatalf("expected detected %s, got %s (%v)", winner, detected, ok)
			}
		})
	}
}

func TestDispatcherAbortsOnFailure(t *testing.T) {
	candidates := formats.Default().Tags()
	for m := 1; m <= len(candidates); m++ {
		t.Run(fmt.Sprintf("failure_at_%d", m), func(t *testing.T) {
			invoker := &scriptedInvoker{outcomes: map[formats.Tag]nstool.Outcome{
				candidates[m-1]: failure("disk read error"),
			}}
			term := dispatch.NewDispatcher(invoker, nil).Run(context.Background(), describeOpts, candidates)

			if term.State != dispatch.StateAborted {
				t.Fatalf("expected aborted, got %s", term.State)
			}
			if len(invoker.calls) != m {
				t.Fatalf("expected %d calls, got %d", m, len(invoker.calls))
			}
			if len(term.Warnings) != m-1 {
				t.Fatalf("expected %d warnings, got %v", m-1, term.Warnings)
			}
			if term.Last.Message != "disk read error" {
				t.Fatalf("unexpected failure message %q", term.Last.Message)
			}
			if _, ok := term.Detected(); ok {
				t.Fatal("aborted run must not report a detected type")
			}
		})
	}
}

func TestDispatcherExhausted(t *testing.T) {
	candidates := []formats.Tag{formats.NCA, formats.RomFS}
	invoker := &scriptedInvoker{}
	term := dispatch.NewDispatcher(invoker, nil).Run(context.Background(), describeOpts, candidates)
	if term.State != dispatch.StateExhausted {
		t.Fatalf("expected exhausted, got %s", term.State)
	}
	want := []string{"[nca] " + mismatchMessage, "[romfs] " + mismatchMessage}
	if diff := cmp.Diff(want, term.Warnings); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcherEmptyCandidates(t *testing.T) {
	invoker := &scriptedInvoker{}
	term := dispatch.NewDispatcher(invoker, nil).Run(context.Background(), describeOpts, nil)
	if term.State != dispatch.StateExhausted || term.Attempts != 0 || len(invoker.calls) != 0 {
		t.Fatalf("unexpected terminal for empty list: %+v", term)
	}
	if term.Warnings == nil {
		t.Fatal("warnings should be empty, not nil")
	}
}

func TestDispatcherStopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	invoker := &scriptedInvoker{}
	term := dispatch.NewDispatcher(invoker, nil).Run(ctx, describeOpts, formats.Default().Tags())
	if term.State != dispatch.StateAborted {
		t.Fatalf("expected aborted, got %s", term.State)
	}
	if len(invoker.calls) != 0 {
		t.Fatalf("expected no calls, got %v", invoker.calls)
	}
}

func TestStateString(t *testing.T) {
	cases := map[dispatch.State]string{
		dispatch.StateTrying:    "trying",
		dispatch.StateSucceeded: "succeeded",
		dispatch.StateAborted:   "aborted",
		dispatch.StateExhausted: "exhausted",
		dispatch.State(42):      "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
}
