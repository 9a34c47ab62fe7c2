package formats

import (
	"fmt"
	"strings"
)

// Tag identifies one container format accepted by the processor's --type flag.
type Tag string

// Supported tags, in default priority order.
const (
	PFS0              Tag = "pfs0"
	NCA               Tag = "nca"
	XCI               Tag = "xci"
	RomFS             Tag = "romfs"
	NPDM              Tag = "npdm"
	HFS0              Tag = "hfs0"
	PartitionFS       Tag = "partitionfs"
	HashedPartitionFS Tag = "hashedpartitionfs"
	Save              Tag = "save"
	Keygen            Tag = "keygen"
)

// Kind is a coarse description of what a tag decodes.
type Kind string

const (
	KindPackage        Kind = "package archive"
	KindContentArchive Kind = "content archive"
	KindDiskImage      Kind = "disk image"
	KindFilesystem     Kind = "filesystem image"
	KindHeader         Kind = "header descriptor"
	KindPartitionTable Kind = "partition table"
	KindSaveData       Kind = "save data"
	KindKeyDerivation  Kind = "key derivation"
)

// Format pairs a tag with its kind.
type Format struct {
	Tag  Tag
	Kind Kind
}

var defaultFormats = []Format{
	{Tag: PFS0, Kind: KindPackage},
	{Tag: NCA, Kind: KindContentArchive},
	{Tag: XCI, Kind: KindDiskImage},
	{Tag: RomFS, Kind: KindFilesystem},
	{Tag: NPDM, Kind: KindHeader},
	{Tag: HFS0, Kind: KindPartitionTable},
	{Tag: PartitionFS, Kind: KindPartitionTable},
	{Tag: HashedPartitionFS, Kind: KindPartitionTable},
	{Tag: Save, Kind: KindSaveData},
	{Tag: Keygen, Kind: KindKeyDerivation},
}

var defaultHints = map[string]Tag{
	"nsp": PFS0,
	"pfs": PFS0,
	"xci": XCI,
}

// Table is the immutable format configuration handed to the orderer.
type Table struct {
	formats []Format
	index   map[Tag]int
	hints   map[string]Tag
}

// Default returns the built-in table.
func Default() *Table {
	table, err := NewTable(nil)
	if err != nil {
		panic(err)
	}
	return table
}

// NewTable builds a table from the default format list plus extra extension
// hints. Hint keys are extensions without the leading dot; values must name a
// supported tag.
func NewTable(extraHints map[string]string) (*Table, error) {
	t := &Table{
		formats: append([]Format(nil), defaultFormats...),
		index:   make(map[Tag]int, len(defaultFormats)),
		hints:   make(map[string]Tag, len(defaultHints)+len(extraHints)),
	}
	for i, f := range t.formats {
		t.index[f.Tag] = i
	}
	for ext, tag := range defaultHints {
		t.hints[ext] = tag
	}
	for ext, value := range extraHints {
		key := normalizeExtension(ext)
		if key == "" {
			return nil, fmt.Errorf("extension hint %q: empty extension", ext)
		}
		tag, ok := t.Lookup(value)
		if !ok {
			return nil, fmt.Errorf("extension hint %q: unsupported type %q", ext, value)
		}
		t.hints[key] = tag
	}
	return t, nil
}

// Formats returns a copy of the table's formats in priority order.
func (t *Table) Formats() []Format {
	return append([]Format(nil), t.formats...)
}

// Tags returns the supported tags in priority order.
func (t *Table) Tags() []Tag {
	tags := make([]Tag, len(t.formats))
	for i, f := range t.formats {
		tags[i] = f.Tag
	}
	return tags
}

// Lookup resolves a user-supplied type name to a supported tag, ignoring case.
func (t *Table) Lookup(name string) (Tag, bool) {
	tag := Tag(lowerCaser.String(strings.TrimSpace(name)))
	if _, ok := t.index[tag]; !ok {
		return "", false
	}
	return tag, true
}

// Hint returns the priority tag registered for an extension, if any.
func (t *Table) Hint(ext string) (Tag, bool) {
	tag, ok := t.hints[normalizeExtension(ext)]
	return tag, ok
}

// Hints returns a copy of the extension hint mapping.
func (t *Table) Hints() map[string]Tag {
	out := make(map[string]Tag, len(t.hints))
	for k, v := range t.hints {
		out[k] = v
	}
	return out
}

// TagNames renders tags as plain strings.
func TagNames(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = string(tag)
	}
	return out
}
