package nstool_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"nstoolkit/internal/formats"
	"nstoolkit/internal/request"
	"nstoolkit/internal/services/nstool"
)

type stubExecutor struct {
	out   nstool.Output
	err   error
	calls int
	args  [][]string
	wait  bool
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string) (nstool.Output, error) {
	s.calls++
	s.args = append(s.args, append([]string(nil), args...))
	if s.wait {
		<-ctx.Done()
		return nstool.Output{}, ctx.Err()
	}
	return s.out, s.err
}

var testPatterns = []string{`(?i)header is corrupted`, `(?i)bad magic`}

func newClient(t *testing.T, exec nstool.Executor, opts ...nstool.Option) *nstool.Client {
	t.Helper()
	opts = append([]nstool.Option{nstool.WithExecutor(exec), nstool.WithMismatchPatterns(testPatterns)}, opts...)
	client, err := nstool.New("nstool", opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func describeOptions() request.Options {
	return request.Options{Operation: request.OperationDescribe, Source: "/games/title.nsp"}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := nstool.New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
	if _, err := nstool.New("nstool", nstool.WithMismatchPatterns([]string{"("})); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestBuildArgsDescribe(t *testing.T) {
	opts := describeOptions()
	opts.Flags = request.Flags{ShowKeys: true, ShowLayout: true, Verbose: true}
	got := nstool.BuildArgs(opts, formats.NCA)
	want := []string{"--json", "--fstree", "--type", "nca", "--showkeys", "--showlayout", "--verbose", "/games/title.nsp"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected args (-want +got):\n%s", diff)
	}
}

func TestBuildArgsExtract(t *testing.T) {
	opts := request.Options{
		Operation:       request.OperationExtract,
		Source:          "/games/title.nsp",
		OutputDirectory: "/out",
		FileSelector:    request.Some("main.npdm"),
	}
	got := nstool.BuildArgs(opts, formats.PFS0)
	want := []string{"--json", "--type", "pfs0", "--extract", "/out", "--file", "main.npdm", "/games/title.nsp"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected args (-want +got):\n%s", diff)
	}
}

func TestInvokeSuccess(t *testing.T) {
	exec := &stubExecutor{out: nstool.Output{Stdout: []byte(`{"error":false,"errorMessage":"","warnings":["odd padding"],"fileSystem":{"files":3}}`)}}
	client := newClient(t, exec)

	outcome := client.Invoke(context.Background(), describeOptions(), formats.PFS0)
	if outcome.Kind != nstool.OutcomeSuccess {
		t.Fatalf("expected success, got %s (%s)", outcome.Kind, outcome.Message)
	}
	if diff := cmp.Diff([]string{"odd padding"}, outcome.Warnings); diff != "" {
		t.Fatalf("unexpected warnings (-want +got):\n%s", diff)
	}
	if outcome.Tag != formats.PFS0 {
		t.Fatalf("unexpected tag %q", outcome.Tag)
	}
	if outcome.Parameters[0] != "nstool" || outcome.Parameters[len(outcome.Parameters)-1] != "/games/title.nsp" {
		t.Fatalf("unexpected parameters %v", outcome.Parameters)
	}
	if !strings.Contains(string(outcome.Payload), `"files":3`) {
		t.Fatalf("expected payload passthrough, got %s", outcome.Payload)
	}
	if exec.calls != 1 {
		t.Fatalf("expected one run, got %d", exec.calls)
	}
	if diff := cmp.Diff(client.Parameters(describeOptions(), formats.PFS0), outcome.Parameters); diff != "" {
		t.Fatalf("outcome parameters differ from Parameters (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(outcome.Parameters[1:], exec.args[0]); diff != "" {
		t.Fatalf("executor args differ from parameters (-want +got):\n%s", diff)
	}
}

func TestInvokeCollectsLogWarnings(t *testing.T) {
	payload := `{"error":false,"errorMessage":"","warnings":["odd padding"],"log":[` +
		`{"level":"info","message":"Loaded keyset","datetime":"2024-01-01T00:00:00Z"},` +
		`{"level":"warn","message":"NCA signature invalid","datetime":"2024-01-01T00:00:01Z"},` +
		`{"level":"Warning","message":"Ticket not found","datetime":"2024-01-01T00:00:02Z"}]}`
	client := newClient(t, &stubExecutor{out: nstool.Output{Stdout: []byte(payload)}})

	outcome := client.Invoke(context.Background(), describeOptions(), formats.NCA)
	if outcome.Kind != nstool.OutcomeSuccess {
		t.Fatalf("expected success, got %s (%s)", outcome.Kind, outcome.Message)
	}
	want := []string{"odd padding", "NCA signature invalid", "Ticket not found"}
	if diff := cmp.Diff(want, outcome.Warnings); diff != "" {
		t.Fatalf("unexpected warnings (-want +got):\n%s", diff)
	}
}

func TestInvokeClassification(t *testing.T) {
	tests := []struct {
		name string
		out  nstool.Output
		err  error
		want nstool.OutcomeKind
		msg  string
	}{
		{
			name: "explicit type error kind",
			out:  nstool.Output{Stdout: []byte(`{"error":true,"errorKind":"type","errorMessage":"PFS0 magic missing"}`), ExitCode: 1},
			want: nstool.OutcomeTypeMismatch,
			msg:  "PFS0 magic missing",
		},
		{
			name: "message matches pattern",
			out:  nstool.Output{Stdout: []byte(`{"error":true,"errorMessage":"[NcaProcess ERROR] NCA Header is corrupted."}`), ExitCode: 1},
			want: nstool.OutcomeTypeMismatch,
			msg:  "NCA Header is corrupted",
		},
		{
			name: "reported failure",
			out:  nstool.Output{Stdout: []byte(`{"error":true,"errorMessage":"Failed to open output directory"}`), ExitCode: 1},
			want: nstool.OutcomeFailure,
			msg:  "Failed to open output directory",
		},
		{
			name: "stderr mismatch without json",
			out:  nstool.Output{Stderr: []byte("[XciProcess ERROR] bad magic"), ExitCode: 1},
			want: nstool.OutcomeTypeMismatch,
			msg:  "bad magic",
		},
		{
			name: "plain text mismatch on stdout",
			out:  nstool.Output{Stdout: []byte("[PfsProcess ERROR] Header is corrupted (Bad magic)\n"), ExitCode: 1},
			want: nstool.OutcomeTypeMismatch,
			msg:  "[PfsProcess ERROR] Header is corrupted (Bad magic)",
		},
		{
			name: "plain text failure on stdout",
			out:  nstool.Output{Stdout: []byte("[NcaProcess ERROR] Failed to load keyset"), ExitCode: 1},
			want: nstool.OutcomeFailure,
			msg:  "Failed to load keyset",
		},
		{
			name: "stdout and stderr text are joined",
			out:  nstool.Output{Stdout: []byte("Segmentation fault"), Stderr: []byte("core dumped"), ExitCode: 139},
			want: nstool.OutcomeFailure,
			msg:  "Segmentation fault\ncore dumped",
		},
		{
			name: "empty output",
			out:  nstool.Output{ExitCode: 2},
			want: nstool.OutcomeFailure,
			msg:  "exit status 2",
		},
		{
			name: "json array is not a result",
			out:  nstool.Output{Stdout: []byte(`[1,2]`)},
			want: nstool.OutcomeFailure,
			msg:  "malformed output",
		},
		{
			name: "non-zero exit without error flag",
			out:  nstool.Output{Stdout: []byte(`{"error":false}`), ExitCode: 3},
			want: nstool.OutcomeFailure,
			msg:  "status 3",
		},
		{
			name: "start failure",
			err:  errors.New("exec: \"nstool\": executable file not found in $PATH"),
			want: nstool.OutcomeFailure,
			msg:  "executable file not found",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient(t, &stubExecutor{out: tc.out, err: tc.err})
			outcome := client.Invoke(context.Background(), describeOptions(), formats.NCA)
			if outcome.Kind != tc.want {
				t.Fatalf("expected %s, got %s (%s)", tc.want, outcome.Kind, outcome.Message)
			}
			if !strings.Contains(outcome.Message, tc.msg) {
				t.Fatalf("expected message containing %q, got %q", tc.msg, outcome.Message)
			}
			if outcome.Kind != nstool.OutcomeSuccess && outcome.Payload != nil {
				t.Fatalf("expected no payload on %s", outcome.Kind)
			}
		})
	}
}

func TestInvokeTimeoutIsFailure(t *testing.T) {
	client := newClient(t, &stubExecutor{wait: true}, nstool.WithTimeout(20*time.Millisecond))
	outcome := client.Invoke(context.Background(), describeOptions(), formats.NCA)
	if outcome.Kind != nstool.OutcomeFailure {
		t.Fatalf("expected failure on timeout, got %s", outcome.Kind)
	}
	if !strings.Contains(outcome.Message, "timeout") {
		t.Fatalf("expected timeout message, got %q", outcome.Message)
	}
}

func TestInvokeCanceledContextIsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := newClient(t, &stubExecutor{wait: true})
	outcome := client.Invoke(ctx, describeOptions(), formats.NCA)
	if outcome.Kind != nstool.OutcomeFailure || !strings.Contains(outcome.Message, "canceled") {
		t.Fatalf("expected canceled failure, got %s %q", outcome.Kind, outcome.Message)
	}
}
