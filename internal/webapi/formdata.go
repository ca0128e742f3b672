// formdata.go — FormData: an ordered multimap of (name, string|File) entries.
package webapi

// FormValue is either a plain string or a *File — exactly one is set.
type FormValue struct {
	Str  string
	File *File
	// isFile distinguishes a string value "" from the zero value, since
	// Str == "" is a legitimate entry.
	isFile bool
}

// IsFile reports whether this entry holds a File rather than a string.
func (v FormValue) IsFile() bool { return v.isFile }

func strValue(s string) FormValue { return FormValue{Str: s} }
func fileValue(f *File) FormValue { return FormValue{File: f, isFile: true} }

type formEntry struct {
	name  string
	value FormValue
}

// FormData implements the WHATWG FormData interface: ordered entries,
// duplicate names allowed, iteration preserves insertion order.
type FormData struct {
	id      InstanceID
	entries []formEntry
}

// NewFormData returns an empty FormData with a fresh identity.
func NewFormData() *FormData {
	return &FormData{id: NewInstanceID()}
}

// ID returns the stable cross-boundary identity of this FormData.
func (fd *FormData) ID() InstanceID { return fd.id }

// Append adds a string entry, keeping any existing entries for name.
func (fd *FormData) Append(name, value string) {
	fd.entries = append(fd.entries, formEntry{name: name, value: strValue(value)})
}

// AppendBlob adds a Blob/File entry, promoting a plain Blob to a File using
// filename (or "blob" if empty).
func (fd *FormData) AppendBlob(name string, blob *Blob, filename string) {
	fd.entries = append(fd.entries, formEntry{name: name, value: fileValue(AsBlob(blob, filename))})
}

// AppendFile adds a File entry directly (e.g. one already produced by the
// multipart parser), without re-wrapping it.
func (fd *FormData) AppendFile(name string, file *File) {
	fd.entries = append(fd.entries, formEntry{name: name, value: fileValue(file)})
}

// Set replaces every existing entry named name with a single string entry.
func (fd *FormData) Set(name, value string) {
	fd.replace(name, strValue(value))
}

// SetBlob replaces every existing entry named name with a single Blob/File
// entry.
func (fd *FormData) SetBlob(name string, blob *Blob, filename string) {
	fd.replace(name, fileValue(AsBlob(blob, filename)))
}

func (fd *FormData) replace(name string, value FormValue) {
	found := false
	out := fd.entries[:0]
	for _, e := range fd.entries {
		if e.name == name {
			if !found {
				out = append(out, formEntry{name: name, value: value})
				found = true
			}
			continue
		}
		out = append(out, e)
	}
	fd.entries = out
	if !found {
		fd.entries = append(fd.entries, formEntry{name: name, value: value})
	}
}

// Delete removes every entry named name, or (two-argument form) only
// entries whose value also matches (strings compared by value, Files by
// identity).
func (fd *FormData) Delete(name string, value *FormValue) {
	out := fd.entries[:0]
	for _, e := range fd.entries {
		if e.name == name && (value == nil || formValuesEqual(e.value, *value)) {
			continue
		}
		out = append(out, e)
	}
	fd.entries = out
}

func formValuesEqual(a, b FormValue) bool {
	if a.isFile != b.isFile {
		return false
	}
	if a.isFile {
		return a.File == b.File
	}
	return a.Str == b.Str
}

// Get returns the first value for name, or zero value with ok=false.
func (fd *FormData) Get(name string) (FormValue, bool) {
	for _, e := range fd.entries {
		if e.name == name {
			return e.value, true
		}
	}
	return FormValue{}, false
}

// GetAll returns every value for name, in insertion order.
func (fd *FormData) GetAll(name string) []FormValue {
	var out []FormValue
	for _, e := range fd.entries {
		if e.name == name {
			out = append(out, e.value)
		}
	}
	return out
}

// Has reports whether name has any entry.
func (fd *FormData) Has(name string) bool {
	for _, e := range fd.entries {
		if e.name == name {
			return true
		}
	}
	return false
}

// FormEntry is one (name, value) pair as surfaced by Entries().
type FormEntry struct {
	Name  string
	Value FormValue
}

// Entries returns every entry in insertion order, including duplicates.
func (fd *FormData) Entries() []FormEntry {
	out := make([]FormEntry, len(fd.entries))
	for i, e := range fd.entries {
		out[i] = FormEntry{Name: e.name, Value: e.value}
	}
	return out
}
