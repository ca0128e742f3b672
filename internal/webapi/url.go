// url.go — URL and URLSearchParams: WHATWG-adjacent parsing over net/url,
// with the live-binding invariant between url.searchParams and url.search.
//
// Go's net/url is not a WHATWG URL implementation (no WHATWG percent-encode
// profiles, no special-scheme handling), but the retrieval pack vendors no
// WHATWG URL library for Go either. net/url plus the normalization this
// file adds is the closest idiomatic substrate; see DESIGN.md Open
// Questions for the justification.
package webapi

import (
	"net/url"
	"strings"
)

// URL implements the WHATWG URL interface's observable semantics: href
// round-trips, and searchParams is a live-bound child object.
type URL struct {
	id     InstanceID
	parsed *url.URL
	search *URLSearchParams
}

// ParseURL parses input against an optional base, matching `new URL(input,
// base?)`. A nil base requires input to be absolute.
func ParseURL(input string, base *string) (*URL, error) {
	var u *url.URL
	var err error
	if base != nil {
		var baseURL *url.URL
		baseURL, err = url.Parse(*base)
		if err != nil {
			return nil, &TypeErrorValue{Message: "Invalid base URL: " + err.Error()}
		}
		u, err = baseURL.Parse(input)
	} else {
		u, err = url.Parse(input)
		if err == nil && !u.IsAbs() {
			err = &TypeErrorValue{Message: "Invalid URL: " + input}
		}
	}
	if err != nil {
		return nil, &TypeErrorValue{Message: "Invalid URL: " + err.Error()}
	}

	out := &URL{id: NewInstanceID(), parsed: u}
	out.search = newURLSearchParamsBound(out, u.RawQuery)
	return out, nil
}

// CanParse reports whether input (optionally resolved against base) would
// parse successfully, without constructing a URL.
func CanParse(input string, base *string) bool {
	_, err := ParseURL(input, base)
	return err == nil
}

// ID returns the stable cross-boundary identity of this URL.
func (u *URL) ID() InstanceID { return u.id }

// Href returns the fully serialized URL string.
func (u *URL) Href() string { return u.parsed.String() }

// SetHref reparses the URL in place from a new absolute string, keeping the
// same searchParams object (rebound to the new query) so identity holds.
func (u *URL) SetHref(href string) error {
	parsed, err := url.Parse(href)
	if err != nil || !parsed.IsAbs() {
		return &TypeErrorValue{Message: "Invalid URL: " + href}
	}
	u.parsed = parsed
	u.search.rebind(parsed.RawQuery)
	return nil
}

// Search returns the leading-"?" search string, "" if there is no query.
func (u *URL) Search() string {
	if u.parsed.RawQuery == "" {
		return ""
	}
	return "?" + u.parsed.RawQuery
}

// SetSearch replaces the query string (accepting an optional leading "?")
// and regenerates the bound searchParams in place, so an existing reference
// to url.searchParams observes the new entries.
func (u *URL) SetSearch(search string) {
	search = strings.TrimPrefix(search, "?")
	u.parsed.RawQuery = search
	u.search.rebind(search)
}

// SearchParams returns the same URLSearchParams object on every call.
func (u *URL) SearchParams() *URLSearchParams { return u.search }

func (u *URL) Protocol() string { return u.parsed.Scheme + ":" }
func (u *URL) Host() string     { return u.parsed.Host }
func (u *URL) Hostname() string { return u.parsed.Hostname() }
func (u *URL) Pathname() string {
	if u.parsed.Path == "" {
		return "/"
	}
	return u.parsed.Path
}
func (u *URL) Hash() string {
	if u.parsed.Fragment == "" {
		return ""
	}
	return "#" + u.parsed.Fragment
}
func (u *URL) Port() string { return u.parsed.Port() }
func (u *URL) Origin() string {
	if u.parsed.Scheme == "" || u.parsed.Host == "" {
		return "null"
	}
	return u.parsed.Scheme + "://" + u.parsed.Host
}

// sync re-derives u.parsed.RawQuery from the bound searchParams. Called by
// URLSearchParams after any mutation so url.search reflects it immediately.
func (u *URL) sync(rawQuery string) {
	u.parsed.RawQuery = rawQuery
}

// entry is one (name, value) pair in a URLSearchParams, order-preserving
// and allowing duplicate names.
type entry struct {
	name  string
	value string
}

// URLSearchParams implements the WHATWG URLSearchParams interface. When
// bound to a URL (via url.searchParams), mutations call back into the
// parent so url.search/url.href stay in sync; a standalone instance (`new
// URLSearchParams(...)`) has parent == nil.
type URLSearchParams struct {
	id      InstanceID
	entries []entry
	parent  *URL
}

// NewURLSearchParams parses a query string (with or without a leading "?")
// into a standalone URLSearchParams.
func NewURLSearchParams(query string) *URLSearchParams {
	query = strings.TrimPrefix(query, "?")
	return &URLSearchParams{id: NewInstanceID(), entries: parseQuery(query)}
}

// NewURLSearchParamsFromPairs builds a standalone URLSearchParams from an
// ordered list of pairs (the array-of-pairs constructor form).
func NewURLSearchParamsFromPairs(pairs []HeaderPair) *URLSearchParams {
	sp := &URLSearchParams{id: NewInstanceID()}
	for _, p := range pairs {
		sp.entries = append(sp.entries, entry{name: p.Name, value: p.Value})
	}
	return sp
}

// NewURLSearchParamsFrom copies another URLSearchParams by iterator (never
// by reading internal fields), producing an independent, standalone
// instance.
func NewURLSearchParamsFrom(other *URLSearchParams) *URLSearchParams {
	sp := &URLSearchParams{id: NewInstanceID()}
	for _, p := range other.Entries() {
		sp.entries = append(sp.entries, entry{name: p.Name, value: p.Value})
	}
	return sp
}

func newURLSearchParamsBound(parent *URL, rawQuery string) *URLSearchParams {
	return &URLSearchParams{id: NewInstanceID(), entries: parseQuery(rawQuery), parent: parent}
}

// rebind replaces the entries from a freshly assigned query string, keeping
// the same identity (object) — this is the live-binding invariant: a
// retained url.searchParams reference must observe url.search assignments.
func (sp *URLSearchParams) rebind(rawQuery string) {
	sp.entries = parseQuery(rawQuery)
}

func parseQuery(raw string) []entry {
	if raw == "" {
		return nil
	}
	var out []entry
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		var name, value string
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			name, value = pair[:idx], pair[idx+1:]
		} else {
			name = pair
		}
		out = append(out, entry{name: decodeQueryComponent(name), value: decodeQueryComponent(value)})
	}
	return out
}

// decodeQueryComponent percent-decodes and treats "+" as space, per the
// application/x-www-form-urlencoded rules URLSearchParams follows.
func decodeQueryComponent(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// encodeQueryComponent percent-encodes s, encoding space as "+" per
// URLSearchParams.toString's documented behavior.
func encodeQueryComponent(s string) string {
	return url.QueryEscape(s)
}

// ID returns the stable cross-boundary identity of this URLSearchParams.
func (sp *URLSearchParams) ID() InstanceID { return sp.id }

// Append adds a (name, value) entry, preserving any existing entries with
// the same name.
func (sp *URLSearchParams) Append(name, value string) {
	sp.entries = append(sp.entries, entry{name: name, value: value})
	sp.propagate()
}

// Set replaces all entries named name with a single entry, inserted at the
// position of the first existing match (or appended if none existed).
func (sp *URLSearchParams) Set(name, value string) {
	found := false
	out := sp.entries[:0]
	for _, e := range sp.entries {
		if e.name == name {
			if !found {
				out = append(out, entry{name: name, value: value})
				found = true
			}
			continue
		}
		out = append(out, e)
	}
	sp.entries = out
	if !found {
		sp.entries = append(sp.entries, entry{name: name, value: value})
	}
	sp.propagate()
}

// Delete removes every entry named name, or (two-argument form) only the
// entries whose value also matches.
func (sp *URLSearchParams) Delete(name string, value *string) {
	out := sp.entries[:0]
	for _, e := range sp.entries {
		if e.name == name && (value == nil || e.value == *value) {
			continue
		}
		out = append(out, e)
	}
	sp.entries = out
	sp.propagate()
}

// Get returns the first value for name, or ("", false) if absent.
func (sp *URLSearchParams) Get(name string) (string, bool) {
	for _, e := range sp.entries {
		if e.name == name {
			return e.value, true
		}
	}
	return "", false
}

// GetAll returns every value for name, in insertion order.
func (sp *URLSearchParams) GetAll(name string) []string {
	var out []string
	for _, e := range sp.entries {
		if e.name == name {
			out = append(out, e.value)
		}
	}
	return out
}

// Has reports whether name (optionally with a specific value) is present.
func (sp *URLSearchParams) Has(name string, value *string) bool {
	for _, e := range sp.entries {
		if e.name == name && (value == nil || e.value == *value) {
			return true
		}
	}
	return false
}

// Size returns the number of entries.
func (sp *URLSearchParams) Size() int { return len(sp.entries) }

// Entries returns every (name, value) pair in insertion order.
func (sp *URLSearchParams) Entries() []HeaderPair {
	out := make([]HeaderPair, len(sp.entries))
	for i, e := range sp.entries {
		out[i] = HeaderPair{Name: e.name, Value: e.value}
	}
	return out
}

// Sort reorders entries by name, using a stable sort (ties keep insertion
// order), matching URLSearchParams.sort().
func (sp *URLSearchParams) Sort() {
	stableSortByName(sp.entries)
	sp.propagate()
}

// String serializes as application/x-www-form-urlencoded, encoding space as
// "+".
func (sp *URLSearchParams) String() string {
	var b strings.Builder
	for i, e := range sp.entries {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(encodeQueryComponent(e.name))
		b.WriteByte('=')
		b.WriteString(encodeQueryComponent(e.value))
	}
	return b.String()
}

// propagate pushes the serialized query back to a bound parent URL, if any,
// so url.search/url.href reflect the mutation immediately.
func (sp *URLSearchParams) propagate() {
	if sp.parent != nil {
		sp.parent.sync(sp.String())
	}
}

func stableSortByName(entries []entry) {
	// insertion sort: entries lists are small (query strings), and this
	// keeps the sort trivially stable without importing sort for one call
	// site that already has a hand-rolled comparison.
	for i := 1; i < len(entries); i++ {
		j := i
		for j > 0 && entries[j-1].name > entries[j].name {
			entries[j-1], entries[j] = entries[j], entries[j-1]
			j--
		}
	}
}
