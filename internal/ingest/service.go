package ingest

// service.go drives the whole pipeline for one uploaded file. Chunks are
// processed strictly sequentially: chunk N+1 only starts after chunk N's
// verification and persistence finished, because the verifier's visibility
// sets depend on prior chunks' committed writes.

import (
	"context"
	"fmt"
	"io"

	"dataload/internal/logging"
)

// Service is the entry point for ingestion. It owns no mutable state
// beyond its collaborators; every call to Ingest is independent.
type Service struct {
	store     Store
	verifier  *Verifier
	loader    *Loader
	chunkSize int
}

// NewService creates an ingestion service over store. A non-positive
// chunkSize falls back to DefaultChunkSize.
func NewService(store Store, chunkSize int) *Service {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Service{
		store:     store,
		verifier:  NewVerifier(store),
		loader:    NewLoader(store),
		chunkSize: chunkSize,
	}
}

// Ingest decodes, validates, and persists one uploaded file.
//
// The extension of filename selects the decoder; ErrUnsupportedFormat is
// returned before any record is processed. Every other failure mode still
// yields a Result: row-level failures accumulate as errors, a store
// failure voids only its chunk, and a malformed payload ends the ingestion
// after the chunks already committed.
//
// The returned error is non-nil only for UnsupportedFormat, MalformedInput,
// and context cancellation; the Result (when non-nil) is always complete
// for the work actually done.
func (s *Service) Ingest(ctx context.Context, filename string, src io.Reader) (*Result, error) {
	log := logging.FromContext(ctx)

	counting := NewCountingReader(src)
	reader, err := OpenReader(filename, counting)
	if err != nil {
		return nil, err
	}

	result := &Result{Errors: []string{}}
	chunker := NewChunker(reader, s.chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			// Committed chunks stay committed; the in-flight chunk never
			// reached the store.
			result.finish()
			return result, err
		}

		chunk, err := chunker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.addError(err.Error())
			result.finish()
			return result, err
		}

		log.Debug("processing chunk",
			"file", filename,
			"records", len(chunk.Records),
			"offset", chunk.Start,
		)
		s.processChunk(ctx, chunk, result)
	}

	result.finish()
	log.Info("ingestion complete",
		"file", filename,
		"bytes", counting.BytesRead,
		"records", result.RecordsProcessed,
		"created", result.SuccessRows,
		"skipped", result.SkippedRows,
		"errors", len(result.Errors),
	)
	return result, nil
}

// processChunk runs classification, validation, verification, and
// persistence for one chunk, folding the outcome into result.
func (s *Service) processChunk(ctx context.Context, chunk *Chunk, result *Result) {
	result.RecordsProcessed += len(chunk.Records)

	batch := s.categorize(chunk, result)

	before := batch.Size()
	refErrs, err := s.verifier.Verify(ctx, batch)
	if err != nil {
		// Could not build visibility sets; nothing in this chunk persists.
		result.addError("database error: " + err.Error())
		result.SkippedRows += before
		return
	}
	for _, msg := range refErrs {
		result.addError(msg)
	}
	result.SkippedRows += before - batch.Size()

	created, duplicates, err := s.loader.Load(ctx, batch)
	if err != nil {
		result.addError("database error: " + err.Error())
		result.SkippedRows += batch.Size()
		return
	}

	result.CustomersCreated += created.Customers
	result.ProductsCreated += created.Products
	result.OrdersCreated += created.Orders
	result.OrderItemsCreated += created.OrderItems
	result.SuccessRows += created.Total()
	result.SkippedRows += duplicates
}

// categorize classifies and validates every record in the chunk. Records
// that cannot be classified or fail validation contribute one error entry
// each and are dropped; the rest land in the batch grouped by kind.
func (s *Service) categorize(chunk *Chunk, result *Result) *Batch {
	batch := &Batch{}

	for i, rec := range chunk.Records {
		row := chunk.RowNumber(i)

		kind, ok := Classify(rec)
		if !ok {
			result.SkippedRows++
			result.addError(fmt.Sprintf("row %d: could not identify entity type from fields", row))
			continue
		}

		var fieldErrs []FieldError
		switch kind {
		case KindCustomer:
			c, errs := ValidateCustomer(rec)
			if fieldErrs = errs; len(errs) == 0 {
				batch.Customers = append(batch.Customers, c)
			}
		case KindProduct:
			p, errs := ValidateProduct(rec)
			if fieldErrs = errs; len(errs) == 0 {
				batch.Products = append(batch.Products, p)
			}
		case KindOrder:
			o, errs := ValidateOrder(rec)
			if fieldErrs = errs; len(errs) == 0 {
				batch.Orders = append(batch.Orders, o)
			}
		case KindOrderItem:
			it, errs := ValidateOrderItem(rec)
			if fieldErrs = errs; len(errs) == 0 {
				batch.OrderItems = append(batch.OrderItems, it)
			}
		}

		if len(fieldErrs) > 0 {
			result.SkippedRows++
			result.addError(fmt.Sprintf("row %d: validation error - %s", row, joinFieldErrors(fieldErrs)))
		}
	}

	return batch
}
