package pipeline

import (
	"errors"
	"fmt"

	"github.com/aluiziolira/go-scrape-jumia/models"
)

// MultiWriter fans every batch out to several writers.
type MultiWriter []OutputWriter

// Write stops at the first failing writer so outputs never drift apart by
// more than one batch.
func (m MultiWriter) Write(records []*models.ProductRecord) error {
	for i, w := range m {
		if err := w.Write(records); err != nil {
			return fmt.Errorf("writer %d: %w", i, err)
		}
	}
	return nil
}

// Close closes every writer, even after a failure.
func (m MultiWriter) Close() error {
	var errs []error
	for i, w := range m {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks every output.
func (m MultiWriter) Validate() error {
	var errs []error
	for i, w := range m {
		if err := w.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("validate writer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
