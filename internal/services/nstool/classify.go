package nstool

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// errorKindType is the errorKind value nstool sets when the input does not
// match the requested --type.
const errorKindType = "type"

// Classifier decides whether a failed attempt was a wrong-type guess.
type Classifier struct {
	patterns []*regexp.Regexp
}

// NewClassifier compiles the mismatch patterns.
func NewClassifier(patterns []string) (*Classifier, error) {
	c := &Classifier{}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("mismatch pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

func (c *Classifier) matches(message string) bool {
	for _, re := range c.patterns {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}

// Classify turns a finished run into an Outcome. Parameters and Tag are left
// for the caller to fill in.
func (c *Classifier) Classify(out Output) Outcome {
	stdout := strings.TrimSpace(string(out.Stdout))
	stderr := strings.TrimSpace(string(out.Stderr))

	if stdout == "" || !gjson.Valid(stdout) {
		// Plain-text builds of nstool print their errors to stdout.
		message := strings.TrimSpace(stdout + "\n" + stderr)
		if message == "" {
			message = fmt.Sprintf("processor produced no output (exit status %d)", out.ExitCode)
		}
		if c.matches(message) {
			return Outcome{Kind: OutcomeTypeMismatch, Message: message}
		}
		return Outcome{Kind: OutcomeFailure, Message: message}
	}
	if !gjson.Parse(stdout).IsObject() {
		message := stderr
		if message == "" {
			message = "processor returned malformed output"
		}
		return Outcome{Kind: OutcomeFailure, Message: message}
	}

	result := gjson.Parse(stdout)
	if result.Get("error").Bool() {
		message := strings.TrimSpace(result.Get("errorMessage").String())
		if message == "" {
			message = stderr
		}
		if message == "" {
			message = "processor reported an error"
		}
		if strings.EqualFold(result.Get("errorKind").String(), errorKindType) || c.matches(message) {
			return Outcome{Kind: OutcomeTypeMismatch, Message: message}
		}
		return Outcome{Kind: OutcomeFailure, Message: message}
	}

	if out.ExitCode != 0 {
		message := stderr
		if message == "" {
			message = fmt.Sprintf("processor exited with status %d", out.ExitCode)
		}
		return Outcome{Kind: OutcomeFailure, Message: message}
	}

	return Outcome{Kind: OutcomeSuccess, Payload: []byte(stdout), Warnings: collectWarnings(result)}
}

// collectWarnings gathers the top-level warnings array followed by the
// warn-level entries of the processor's log, in log order.
func collectWarnings(result gjson.Result) []string {
	var warnings []string
	add := func(v gjson.Result) {
		if s := strings.TrimSpace(v.String()); s != "" {
			warnings = append(warnings, s)
		}
	}
	for _, w := range result.Get("warnings").Array() {
		add(w)
	}
	result.Get("log").ForEach(func(_, entry gjson.Result) bool {
		switch strings.ToLower(entry.Get("level").String()) {
		case "warn", "warning":
			add(entry.Get("message"))
		}
		return true
	})
	return warnings
}
