package normalize

// Report counts the fields that fell back to a default while building one
// canonical record (or a batch of them, see Merge).
type Report struct {
	Defaulted int      `json:"defaulted"`
	Fields    []string `json:"fields,omitempty"`
}

// Add records that field was defaulted.
func (r *Report) Add(field string) {
	r.Defaulted++
	r.Fields = append(r.Fields, field)
}

// Merge folds o into r.
func (r *Report) Merge(o Report) {
	r.Defaulted += o.Defaulted
	r.Fields = append(r.Fields, o.Fields...)
}

// Fields reads typed values out of one raw record and keeps a Report of
// every fallback. The first candidate of every lookup is the canonical
// field name and is the name recorded in the report.
type Fields struct {
	raw    map[string]any
	report Report
}

// NewFields wraps raw. raw may be nil; every lookup then defaults.
func NewFields(raw map[string]any) *Fields {
	return &Fields{raw: raw}
}

// Report returns what was defaulted so far.
func (f *Fields) Report() Report {
	return f.report
}

func (f *Fields) lookup(candidates []string) (any, bool) {
	return Field(f.raw, candidates...)
}

func (f *Fields) fallback(candidates []string) {
	if len(candidates) > 0 {
		f.report.Add(candidates[0])
	}
}

// String resolves a scalar as a string, or returns def.
func (f *Fields) String(def string, candidates ...string) string {
	if v, ok := f.lookup(candidates); ok {
		if s, ok := AsString(v); ok && s != "" {
			return s
		}
	}
	f.fallback(candidates)
	return def
}

// OptionalString returns nil when no candidate is present. A missing
// optional field is not a fallback.
func (f *Fields) OptionalString(candidates ...string) *string {
	if v, ok := f.lookup(candidates); ok {
		if s, ok := AsString(v); ok && s != "" {
			return &s
		}
	}
	return nil
}

// Int resolves a number, or returns def.
func (f *Fields) Int(def int, candidates ...string) int {
	if v, ok := f.lookup(candidates); ok {
		if i, ok := AsInt(v); ok {
			return i
		}
	}
	f.fallback(candidates)
	return def
}

// Bool resolves a boolean, or returns def.
func (f *Fields) Bool(def bool, candidates ...string) bool {
	if v, ok := f.lookup(candidates); ok {
		if b, ok := AsBool(v); ok {
			return b
		}
	}
	f.fallback(candidates)
	return def
}

// Object resolves a nested object, unwrapping it when it arrived as a JSON
// string. A missing object defaults to an empty map.
func (f *Fields) Object(candidates ...string) map[string]any {
	if v, ok := f.lookup(candidates); ok {
		if m, ok := UnwrapJSON(v).(map[string]any); ok {
			return m
		}
	}
	f.fallback(candidates)
	return map[string]any{}
}
