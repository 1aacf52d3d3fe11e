package domain

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"
)

// ResumeRecord is the structured resume document as received from the
// resume store. The pipeline treats it as an opaque payload and only cares
// about its shape.
type ResumeRecord map[string]interface{}

// internalFields are server-side bookkeeping keys that must never be sent to
// the external AI service.
var internalFields = []string{"_id", "__v", "createdAt", "updatedAt", "user"}

// nestedInternalFields are the bookkeeping keys the resume store adds to
// every subdocument, e.g. each education or experience entry.
var nestedInternalFields = []string{"_id", "__v"}

// IsEmpty reports whether the record carries no fields at all.
func (r ResumeRecord) IsEmpty() bool { return len(r) == 0 }

// Clone returns a deep copy made through a JSON round trip, so nested maps and
// slices are never shared with the receiver.
func (r ResumeRecord) Clone() (ResumeRecord, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out ResumeRecord
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StripInternal splits the record into the part that may leave the process
// and the internal bookkeeping fields, at the top level and inside nested
// objects. The receiver is not modified; public shares nothing with it.
func (r ResumeRecord) StripInternal() (public ResumeRecord, internal Internals) {
	public = stripObject(r, nil, internalFields, &internal)
	return public, internal
}

// Internals holds the fields removed by StripInternal together with the
// location of the object each one came from.
type Internals struct {
	fields []internalField
}

type internalField struct {
	// path holds map keys (string) and list indexes (int) leading from the
	// record root to the owning object.
	path  []interface{}
	key   string
	value interface{}
}

// Len reports how many fields were removed.
func (in Internals) Len() int { return len(in.fields) }

// Get returns the top-level field removed under key.
func (in Internals) Get(key string) (interface{}, bool) {
	for _, f := range in.fields {
		if len(f.path) == 0 && f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

// Restore puts every removed field back into rec, which is expected to have
// the stripped record's shape. Fields whose owning object no longer exists
// are dropped.
func (in Internals) Restore(rec map[string]interface{}) {
	for _, f := range in.fields {
		if obj, ok := lookupObject(rec, f.path); ok {
			obj[f.key] = f.value
		}
	}
}

func stripObject(m map[string]interface{}, path []interface{}, drop []string, in *Internals) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if slices.Contains(drop, k) {
			in.fields = append(in.fields, internalField{path: path, key: k, value: v})
			continue
		}
		out[k] = stripValue(v, extend(path, k), in)
	}
	return out
}

func stripValue(v interface{}, path []interface{}, in *Internals) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return stripObject(t, path, nestedInternalFields, in)
	case ResumeRecord:
		return stripObject(t, path, nestedInternalFields, in)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = stripValue(e, extend(path, i), in)
		}
		return out
	}
	return v
}

func extend(path []interface{}, step interface{}) []interface{} {
	out := make([]interface{}, len(path), len(path)+1)
	copy(out, path)
	return append(out, step)
}

func lookupObject(v interface{}, path []interface{}) (map[string]interface{}, bool) {
	for _, step := range path {
		switch s := step.(type) {
		case string:
			m, ok := asMap(v)
			if !ok {
				return nil, false
			}
			v = m[s]
		case int:
			l, ok := v.([]interface{})
			if !ok || s >= len(l) {
				return nil, false
			}
			v = l[s]
		}
	}
	return asMap(v)
}

// FullName returns the trimmed "fullname" field, or "" when absent.
func (r ResumeRecord) FullName() string {
	s, _ := r["fullname"].(string)
	return strings.TrimSpace(s)
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeChars   = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

// SuggestedFilename derives the download name from the requester's name,
// e.g. "Jane Doe" -> "Jane_Doe_Resume.pdf".
func (r ResumeRecord) SuggestedFilename() string {
	name := whitespaceRun.ReplaceAllString(r.FullName(), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "_.")
	if name == "" {
		return "Resume.pdf"
	}
	return name + "_Resume.pdf"
}

// SameShape reports whether b has exactly the key structure of a: identical
// key sets at every object level and equal lengths for every list. Values may
// differ freely. The returned path names the first mismatch.
func SameShape(a, b interface{}) (bool, string) {
	return sameShape(a, b, "$")
}

func sameShape(a, b interface{}, path string) (bool, string) {
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := asMap(b)
		if !ok {
			return false, path
		}
		if len(av) != len(bv) {
			return false, path
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok {
				return false, path + "." + k
			}
			if ok, p := sameShape(v, w, path+"."+k); !ok {
				return false, p
			}
		}
		return true, ""
	case ResumeRecord:
		return sameShape(map[string]interface{}(av), b, path)
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false, path
		}
		for i := range av {
			if ok, p := sameShape(av[i], bv[i], path+"[]"); !ok {
				return false, p
			}
		}
		return true, ""
	default:
		// Scalars carry no keys; an object or list replacing a scalar does.
		switch b.(type) {
		case map[string]interface{}, ResumeRecord, []interface{}:
			return false, path
		}
		return true, ""
	}
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case ResumeRecord:
		return m, true
	}
	return nil, false
}
