package model

// LoadedEntry is a map held in memory. Dirty means it was updated since it
// was last read from or written to disk.
type LoadedEntry struct {
	Content string
	Label   *string
	Dirty   bool
}

// LocalEntry is a map found under the output directory at startup that has
// not been read into memory.
type LocalEntry struct {
	JSONPath string
	Label    *string
}

// Stored is what the editor page needs to bootstrap a previously saved map.
type Stored struct {
	Content string
	Label   *string
}

// NormalizeLabel maps the empty string to an absent label.
func NormalizeLabel(label string) *string {
	if label == "" {
		return nil
	}
	return &label
}

// LabelOf returns the label text and whether it is present.
func LabelOf(label *string) (string, bool) {
	if label == nil {
		return "", false
	}
	return *label, true
}
