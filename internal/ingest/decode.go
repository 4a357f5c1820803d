package ingest

// decode.go selects a decoder from the file extension and turns the byte
// stream into a lazy sequence of RawRecords.
//
// CSV is decoded line by line. JSON is first attempted as a single value
// (array of objects, or one object); if that parse fails the payload is
// re-read as newline-delimited JSON, one object per non-blank line. Only
// the JSON-array mode holds the full payload in memory; callers with files
// larger than memory must use CSV or NDJSON.

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"encoding/csv"
)

// maxNDJSONLine bounds a single NDJSON line (10MB).
const maxNDJSONLine = 10 * 1024 * 1024

// RecordReader yields decoded records one at a time, returning io.EOF when
// the stream is exhausted. Any other error ends the decode; it cannot
// resume mid-stream.
type RecordReader interface {
	Next() (RawRecord, error)
}

// OpenReader picks a decoder from the filename extension and wraps src
// with BOM skipping and UTF-8 sanitization.
//
// Returns ErrUnsupportedFormat for anything other than .csv or .json.
func OpenReader(filename string, src io.Reader) (RecordReader, error) {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".csv"):
		return newCSVReader(sanitizeStream(src))
	case strings.HasSuffix(name, ".json"):
		return newJSONReader(sanitizeStream(src))
	default:
		return nil, ErrUnsupportedFormat
	}
}

// csvReader decodes one CSV row per Next call. The first line is the
// header; cells are keyed by trimmed header names and empty cells are
// normalized to nil so presence and absence stay distinct.
type csvReader struct {
	r      *csv.Reader
	header []string
}

func newCSVReader(src io.Reader) (*csvReader, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		// Empty file decodes to zero records.
		return &csvReader{r: r}, nil
	}
	if err != nil {
		return nil, &MalformedInputError{Err: err}
	}

	trimmed := make([]string, len(header))
	for i, h := range header {
		trimmed[i] = strings.TrimSpace(h)
	}
	return &csvReader{r: r, header: trimmed}, nil
}

func (c *csvReader) Next() (RawRecord, error) {
	if c.header == nil {
		return nil, io.EOF
	}

	row, err := c.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &MalformedInputError{Err: err}
	}

	rec := make(RawRecord, len(c.header))
	for i, h := range c.header {
		if h == "" {
			continue
		}
		var v any
		if i < len(row) {
			if s := strings.TrimSpace(row[i]); s != "" {
				v = s
			}
		}
		rec[h] = v
	}
	return rec, nil
}

// newJSONReader reads the whole payload and tries it as one JSON value.
// An array yields one record per element and a lone object yields exactly
// one; anything else falls back to NDJSON, parsed lazily per line.
func newJSONReader(src io.Reader) (RecordReader, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)

	var v any
	if err := json.Unmarshal(data, &v); err == nil {
		switch val := v.(type) {
		case []any:
			return &jsonArrayReader{items: val}, nil
		case map[string]any:
			return &jsonArrayReader{items: []any{val}}, nil
		default:
			return nil, &MalformedInputError{
				Err: errors.New("JSON must be an array of objects or a single object"),
			}
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxNDJSONLine)
	return &ndjsonReader{sc: sc}, nil
}

// jsonArrayReader iterates a fully decoded JSON array.
type jsonArrayReader struct {
	items []any
	pos   int
}

func (j *jsonArrayReader) Next() (RawRecord, error) {
	if j.pos >= len(j.items) {
		return nil, io.EOF
	}
	item := j.items[j.pos]
	j.pos++

	obj, ok := item.(map[string]any)
	if !ok {
		return nil, &MalformedInputError{
			Err: fmt.Errorf("array element %d is not an object", j.pos),
		}
	}
	return RawRecord(obj), nil
}

// ndjsonReader parses one JSON object per non-blank line. A malformed line
// fails the whole decode, naming the line's first 50 characters.
type ndjsonReader struct {
	sc *bufio.Scanner
}

func (n *ndjsonReader) Next() (RawRecord, error) {
	for n.sc.Scan() {
		line := strings.TrimSpace(n.sc.Text())
		if line == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return nil, &MalformedInputError{Line: truncate(line, 50), Err: err}
		}
		return RawRecord(obj), nil
	}
	if err := n.sc.Err(); err != nil {
		return nil, &MalformedInputError{Err: err}
	}
	return nil, io.EOF
}
