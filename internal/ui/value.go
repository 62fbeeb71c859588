package ui

// Value is the tagged variant carried by component events. A nil
// Value means the component was cleared.
type Value interface {
	isValue()
}

type (
	// String is a bare value, typically a filesystem path.
	String string

	// Record is a keyed value, such as the file descriptor produced by
	// an upload (name, path, size, ...).
	Record map[string]Value

	// Sequence is an ordered list of values, as produced by a
	// multi-file component.
	Sequence []Value
)

func (String) isValue()   {}
func (Record) isValue()   {}
func (Sequence) isValue() {}

// FileRecord builds the Record the host attaches to an uploaded file.
func FileRecord(originalName string, path string) Record {
	return Record{
		"orig_name": String(originalName),
		"name":      String(path),
		"path":      String(path),
	}
}

// Paths builds a Sequence of String values.
func Paths(paths ...string) Sequence {
	seq := make(Sequence, 0, len(paths))
	for _, p := range paths {
		seq = append(seq, String(p))
	}

	return seq
}
