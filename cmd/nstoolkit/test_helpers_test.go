package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// stubProcessor accepts only --type nca and reports a type mismatch for every
// other candidate.
const stubProcessor = `#!/bin/sh
type=""
while [ $# -gt 1 ]; do
  case "$1" in
    --type) type="$2"; shift ;;
  esac
  shift
done
if [ "$type" = "nca" ]; then
  echo '{"error":false,"warnings":["missing title key"],"fileSystem":{"files":2}}'
  exit 0
fi
echo '{"error":true,"errorKind":"type","errorMessage":"header is corrupted"}'
exit 1
`

type cliTestEnv struct {
	baseDir    string
	configPath string
	source     string
	outputDir  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("NSTOOLKIT_PROCESSOR", "")

	binary := filepath.Join(base, "bin", "nstool")
	mustWrite(t, binary, stubProcessor, 0o755)

	source := filepath.Join(base, "games", "game.nsp")
	mustWrite(t, source, "PFS0", 0o644)

	outputDir := filepath.Join(base, "out")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}

	configPath := filepath.Join(base, "nstoolkit.toml")
	content := fmt.Sprintf(`[processor]
binary = %q

[history]
enabled = true
path = %q

[paths]
log_dir = %q
lock_dir = %q

[logging]
level = "error"
`, binary, filepath.Join(base, "history.db"), filepath.Join(base, "logs"), filepath.Join(base, "locks"))
	mustWrite(t, configPath, content, 0o644)

	return &cliTestEnv{
		baseDir:    base,
		configPath: configPath,
		source:     source,
		outputDir:  outputDir,
	}
}

func mustWrite(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
