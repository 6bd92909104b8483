package backend

import (
	"context"

	"salesheet/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the workbook instance and optional cleanup function
type BackendResult struct {
	Workbook sheets.Workbook
	Cleanup  CleanupFunc
}

// Close runs the cleanup function if there is one
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a workbook backend based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
