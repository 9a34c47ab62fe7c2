package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/tidwall/gjson"

	"nstoolkit/internal/dispatch"
)

type level int

const (
	levelInfo level = iota
	levelOK
	levelWarn
	levelError
)

var levelStyles = [...]struct {
	tag   string
	color string
}{
	levelInfo:  {"INFO", "\x1b[34m"},
	levelOK:    {"OK", "\x1b[32m"},
	levelWarn:  {"WARN", "\x1b[33m"},
	levelError: {"ERROR", "\x1b[31m"},
}

const (
	colorReset = "\x1b[0m"
	labelWidth = 16
)

// report collects aligned "Label: [LEVEL] detail" lines grouped under titled
// sections.
type report struct {
	colorize bool
	lines    []string
}

func newReport(title string, colorize bool) *report {
	r := &report{colorize: colorize}
	r.section(title)
	return r
}

func (r *report) paint(lvl level, text string) string {
	if !r.colorize {
		return text
	}
	return levelStyles[lvl].color + text + colorReset
}

func (r *report) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	heading := "== " + strings.TrimSpace(title) + " =="
	r.lines = append(r.lines,
		r.paint(levelInfo, heading),
		r.paint(levelInfo, strings.Repeat("-", len(heading))),
	)
}

func (r *report) add(label string, lvl level, detail string) {
	status := "[" + levelStyles[lvl].tag + "]"
	if detail != "" {
		status += " " + detail
	}
	r.lines = append(r.lines, r.paint(lvl, fmt.Sprintf("  %-*s %s", labelWidth, label+":", status)))
}

func (r *report) String() string {
	return strings.Join(r.lines, "\n") + "\n"
}

// colorEnabled reports whether w is a terminal and NO_COLOR is unset.
func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// resultFields are merged into every result and are not payload content.
var resultFields = map[string]bool{
	"error":        true,
	"errorMessage": true,
	"warnings":     true,
	"detectedType": true,
	"parameters":   true,
}

func renderResult(source string, res dispatch.Result, colorize bool) string {
	r := newReport(source, colorize)
	if res.Error {
		r.add("Result", levelError, res.ErrorMessage)
	} else {
		r.add("Result", levelOK, "Processed")
	}
	if res.DetectedType != "" {
		r.add("Detected type", levelInfo, string(res.DetectedType))
	}
	if res.Attempts > 0 {
		r.add("Attempts", levelInfo, strconv.Itoa(res.Attempts))
	}
	if res.RunID != "" {
		r.add("Run", levelInfo, res.RunID)
	}
	if len(res.Parameters) > 0 {
		r.add("Command", levelInfo, strings.Join(res.Parameters, " "))
	}
	if keys := payloadKeys(res); len(keys) > 0 {
		r.add("Payload", levelInfo, strings.Join(keys, ", ")+" (use --json to print)")
	}

	var b strings.Builder
	b.WriteString(r.String())
	if len(res.Warnings) > 0 {
		rows := make([][]string, 0, len(res.Warnings))
		for i, w := range res.Warnings {
			rows = append(rows, []string{strconv.Itoa(i + 1), w})
		}
		b.WriteByte('\n')
		b.WriteString(renderTable([]string{"#", "Warning"}, rows, []columnAlignment{alignRight, alignLeft}))
		b.WriteByte('\n')
	}
	return b.String()
}

func payloadKeys(res dispatch.Result) []string {
	if len(res.Payload) == 0 || !gjson.ValidBytes(res.Payload) {
		return nil
	}
	var keys []string
	gjson.ParseBytes(res.Payload).ForEach(func(key, _ gjson.Result) bool {
		if !resultFields[key.String()] {
			keys = append(keys, key.String())
		}
		return true
	})
	sort.Strings(keys)
	return keys
}

func formatCount(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
