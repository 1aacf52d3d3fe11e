package render

import (
	"fmt"
	"html/template"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Helpers is the set of transforms every template can call. It is built
// once at startup and never modified; FuncMap hands out copies so no caller
// can change what another request sees.
type Helpers struct {
	funcs template.FuncMap
}

// NewHelpers returns the standard helper set.
func NewHelpers() *Helpers {
	return &Helpers{funcs: template.FuncMap{
		"formatDate": formatDate,
		"formatYear": formatYear,
		"dateRange":  dateRange,
		"join":       join,
		"hasItems":   hasItems,
		"default":    defaultValue,
		"upper":      upper,
		"initials":   initials,
		"safeURL":    safeURL,
	}}
}

// FuncMap returns a fresh copy of the helper functions.
func (h *Helpers) FuncMap() template.FuncMap {
	out := make(template.FuncMap, len(h.funcs))
	for k, v := range h.funcs {
		out[k] = v
	}
	return out
}

// Names lists the registered helper names.
func (h *Helpers) Names() []string {
	names := make([]string, 0, len(h.funcs))
	for k := range h.funcs {
		names = append(names, k)
	}
	return names
}

var dateLayouts = []struct {
	layout string
	out    string
}{
	{time.RFC3339, "Jan 2006"},
	{"2006-01-02", "Jan 2006"},
	{"2006-01", "Jan 2006"},
	{"January 2006", "Jan 2006"},
	{"2006", "2006"},
}

// formatDate renders "2021-03-15" or an RFC 3339 timestamp as "Mar 2021".
// Values it cannot parse are returned unchanged.
func formatDate(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.Itoa(int(x))
	case int:
		return strconv.Itoa(x)
	case time.Time:
		return x.Format("Jan 2006")
	case string:
		s := strings.TrimSpace(x)
		for _, l := range dateLayouts {
			if t, err := time.Parse(l.layout, s); err == nil {
				return t.Format(l.out)
			}
		}
		return s
	}
	return fmt.Sprint(v)
}

// formatYear returns only the year of a date-ish value.
func formatYear(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.Itoa(int(x))
	case int:
		return strconv.Itoa(x)
	case string:
		s := strings.TrimSpace(x)
		for _, l := range dateLayouts {
			if t, err := time.Parse(l.layout, s); err == nil {
				return strconv.Itoa(t.Year())
			}
		}
		return s
	}
	return fmt.Sprint(v)
}

// dateRange joins two dates; an empty end means the entry is current.
func dateRange(start, end interface{}) string {
	s, e := formatDate(start), formatDate(end)
	if s == "" && e == "" {
		return ""
	}
	if e == "" {
		e = "Present"
	}
	if s == "" {
		return e
	}
	return s + " – " + e
}

// join concatenates the non-empty items of a list with sep.
func join(sep string, list interface{}) string {
	rv := reflect.ValueOf(list)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		if s, ok := list.(string); ok {
			return s
		}
		return ""
	}
	parts := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i).Interface()
		if item == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

// hasItems reports whether v is a non-empty list, map or string.
func hasItems(v interface{}) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.String:
		return strings.TrimSpace(rv.String()) != ""
	}
	return true
}

// defaultValue is used as {{ .phone | default "n/a" }}.
func defaultValue(def string, v interface{}) interface{} {
	if !hasItems(v) {
		return def
	}
	return v
}

func upper(v interface{}) string {
	if v == nil {
		return ""
	}
	return strings.ToUpper(fmt.Sprint(v))
}

// initials returns up to three capital initials, "Jane Q Doe" -> "JQD".
func initials(v interface{}) string {
	s, _ := v.(string)
	var out []rune
	for _, w := range strings.Fields(s) {
		if len(out) == 3 {
			break
		}
		if r := []rune(w)[0]; unicode.IsLetter(r) {
			out = append(out, unicode.ToUpper(r))
		}
	}
	return string(out)
}

// safeURL marks http(s) and mailto links as trusted, adding https:// to bare
// hosts such as "github.com/jane". Anything else becomes "#".
func safeURL(v interface{}) template.URL {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return "#"
	}
	if !strings.Contains(s, "://") && !strings.HasPrefix(s, "mailto:") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "#"
	}
	switch u.Scheme {
	case "http", "https", "mailto":
		return template.URL(u.String())
	}
	return "#"
}
