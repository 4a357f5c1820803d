package ingest

// RawRecord is one decoded source row: a mapping from field name to an
// untyped scalar. Values are strings (CSV, JSON strings), float64 (JSON
// numbers), bool, or nil for a field that is present but empty.
//
// Presence and absence are distinct: a CSV row carries every header column
// as a key even when the cell is empty, and classification looks only at
// the key set, never at values.
type RawRecord map[string]any

// Has reports whether the field name appears in the record, regardless of
// whether its value is nil.
func (r RawRecord) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// value returns the field's value with nil normalized to absent.
func (r RawRecord) value(key string) (any, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
