package request

import (
	"strings"

	"nstoolkit/internal/formats"
)

// Operation selects which processor mode a request targets.
type Operation string

const (
	OperationDescribe Operation = "describe"
	OperationExtract  Operation = "extract"
)

// Flags are boolean toggles forwarded to the processor unchanged.
type Flags struct {
	ShowKeys   bool
	ShowLayout bool
	Verbose    bool
}

// Input is the caller-supplied request before validation.
type Input struct {
	Source          Optional[string]
	Type            Optional[string]
	OutputDirectory Optional[string]
	FileSelector    Optional[string]
	Flags           Flags
}

// Options is a validated request.
type Options struct {
	Operation       Operation
	Source          string
	DeclaredType    Optional[formats.Tag]
	OutputDirectory string
	FileSelector    Optional[string]
	Flags           Flags
}

// Discovery reports whether the type must be inferred by trial.
func (o Options) Discovery() bool {
	return !o.DeclaredType.IsSet()
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithAccess injects a filesystem checker (primarily for tests).
func WithAccess(access Access) ValidatorOption {
	return func(v *Validator) {
		if access != nil {
			v.access = access
		}
	}
}

// Validator checks Input against the supported format table.
type Validator struct {
	table  *formats.Table
	access Access
}

// NewValidator constructs a validator for table. A nil table uses the defaults.
func NewValidator(table *formats.Table, opts ...ValidatorOption) *Validator {
	if table == nil {
		table = formats.Default()
	}
	v := &Validator{table: table, access: SystemAccess{}}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns normalized options or the first *ValidationError found.
func (v *Validator) Validate(op Operation, in Input) (Options, error) {
	out := Options{Operation: op, Flags: in.Flags}

	if name, ok := in.Type.Get(); ok {
		tag, known := v.table.Lookup(name)
		if !known {
			return Options{}, newValidationError(KindUnrecognizedType,
				"Unrecognized type %q. Supported types: %s.", name,
				strings.Join(formats.TagNames(v.table.Tags()), ", "))
		}
		out.DeclaredType = Some(tag)
	}

	source, ok := in.Source.Get()
	if !ok || strings.TrimSpace(source) == "" {
		return Options{}, newValidationError(KindMissingSource, "Provide a source file using the \"source\" option.")
	}
	if err := v.access.Readable(source); err != nil {
		return Options{}, newValidationError(KindSourceUnreadable, "The source file is not readable. Given: %s", source)
	}
	out.Source = source

	if op != OperationExtract {
		return out, nil
	}

	dir, ok := in.OutputDirectory.Get()
	if !ok || strings.TrimSpace(dir) == "" {
		return Options{}, newValidationError(KindMissingOutputDirectory,
			"Provide a full path to an output directory using the \"outputDirectory\" option.")
	}
	if err := v.access.WritableDir(dir); err != nil {
		return Options{}, newValidationError(KindOutputDirectoryUnwritable, "The output directory is not writable. Given: %s", dir)
	}
	out.OutputDirectory = dir

	if selector, ok := in.FileSelector.Get(); ok {
		if strings.TrimSpace(selector) == "" {
			return Options{}, newValidationError(KindInvalidFileSelector,
				"The file name of the file you want to extract must be a non-empty string.")
		}
		out.FileSelector = Some(selector)
	}
	return out, nil
}
