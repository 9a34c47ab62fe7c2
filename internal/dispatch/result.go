package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"nstoolkit/internal/formats"
	"nstoolkit/internal/request"
	"nstoolkit/internal/services/nstool"
)

// Result is the caller-facing response of describe and extract.
//
// When the processor succeeded, Payload holds its JSON object and every
// tool-specific field in it is passed through when the result is encoded.
type Result struct {
	Error        bool
	ErrorMessage string
	Warnings     []string
	DetectedType formats.Tag
	Parameters   []string
	Payload      []byte

	// Not encoded.
	RunID     string
	Attempts  int
	ErrorKind request.Kind
}

// MarshalJSON merges the result fields over the processor payload.
func (r Result) MarshalJSON() ([]byte, error) {
	doc := "{}"
	if len(r.Payload) > 0 && gjson.ValidBytes(r.Payload) && gjson.ParseBytes(r.Payload).IsObject() {
		doc = string(r.Payload)
	}

	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	var err error
	set := func(path string, value any) {
		if err == nil {
			doc, err = sjson.Set(doc, path, value)
		}
	}
	del := func(path string) {
		if err == nil {
			doc, err = sjson.Delete(doc, path)
		}
	}

	set("error", r.Error)
	if r.Error {
		set("errorMessage", r.ErrorMessage)
	} else {
		del("errorMessage")
	}
	set("warnings", warnings)
	if r.DetectedType != "" {
		set("detectedType", string(r.DetectedType))
	} else {
		del("detectedType")
	}
	if len(r.Parameters) > 0 {
		set("parameters", r.Parameters)
	}
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return []byte(doc), nil
}

// Aggregate folds a discovery run into a Result. Accumulated mismatch warnings
// come before the warnings of the successful payload.
func Aggregate(term Terminal, source string) Result {
	res := Result{
		Warnings:   append([]string{}, term.Warnings...),
		Parameters: term.Last.Parameters,
		Attempts:   term.Attempts,
	}
	switch term.State {
	case StateSucceeded:
		res.Payload = term.Last.Payload
		res.Warnings = append(res.Warnings, term.Last.Warnings...)
		res.DetectedType = term.Last.Tag
	case StateAborted:
		res.Error = true
		res.ErrorMessage = term.Last.Message
	default:
		res.Error = true
		res.ErrorMessage = exhaustedMessage(source, term.Candidates)
	}
	return res
}

// AggregateSingle folds the one attempt made for a declared type into a
// Result. A mismatch is an error here because there is nothing else to try.
func AggregateSingle(outcome nstool.Outcome) Result {
	res := Result{
		Warnings:   []string{},
		Parameters: outcome.Parameters,
		Attempts:   1,
	}
	if outcome.Kind == nstool.OutcomeSuccess {
		res.Payload = outcome.Payload
		res.Warnings = append(res.Warnings, outcome.Warnings...)
		return res
	}
	res.Error = true
	res.ErrorMessage = outcome.Message
	return res
}

// ErrorResult converts an error raised before the processor ran.
func ErrorResult(err error) Result {
	res := Result{Error: true, Warnings: []string{}}
	if err == nil {
		res.ErrorMessage = "request failed"
		return res
	}
	res.ErrorMessage = err.Error()
	var verr *request.ValidationError
	if errors.As(err, &verr) {
		res.ErrorKind = verr.Kind
	}
	return res
}

func exhaustedMessage(source string, candidates []formats.Tag) string {
	if len(candidates) == 0 {
		return fmt.Sprintf("no supported format matched %s", source)
	}
	return fmt.Sprintf("no supported format matched %s (tried %s)", source,
		strings.Join(formats.TagNames(candidates), ", "))
}
