package ingest

import "io"

// DefaultChunkSize is the number of records buffered per chunk when no
// explicit size is configured.
const DefaultChunkSize = 1000

// Chunk is an ordered, bounded batch of raw records. It is the unit of
// classification, validation, relationship verification, and persistence.
type Chunk struct {
	// Start is the zero-based index of the chunk's first record within
	// the whole stream.
	Start   int
	Records []RawRecord
}

// RowNumber returns the 1-based stream position of record i, used to tag
// row-level errors.
func (c *Chunk) RowNumber(i int) int {
	return c.Start + i + 1
}

// Chunker re-emits a record stream as chunks of at most size records,
// preserving input order. Pure buffering: no validation, no lookahead past
// the chunk boundary. The final chunk may be smaller.
type Chunker struct {
	src  RecordReader
	size int
	read int
}

// NewChunker creates a chunker over src. A non-positive size falls back to
// DefaultChunkSize.
func NewChunker(src RecordReader, size int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Chunker{src: src, size: size}
}

// Next returns the next chunk, or io.EOF once the stream is exhausted.
// Decode errors propagate unchanged; records buffered before the error are
// dropped since decoding cannot resume.
func (c *Chunker) Next() (*Chunk, error) {
	records := make([]RawRecord, 0, c.size)
	for len(records) < c.size {
		rec, err := c.src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, io.EOF
	}

	chunk := &Chunk{Start: c.read, Records: records}
	c.read += len(records)
	return chunk, nil
}
