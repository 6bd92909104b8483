package cli

import (
	"context"
	"errors"
	"fmt"

	"salesheet/internal/core"
	"salesheet/internal/render"
	"salesheet/internal/sheets"
)

// Describe turns a pipeline error into a message fit for the terminal.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, core.ErrInvalidParameter):
		return fmt.Sprintf("Invalid parameters: %v", err)
	case errors.Is(err, core.ErrEmptyDataSet):
		return "No data available for analysis. Run 'salesheet generate' or import a workbook first."
	case errors.Is(err, sheets.ErrMissingColumn):
		return fmt.Sprintf("The Sales Entry sheet is missing required columns: %v", err)
	case errors.Is(err, core.ErrMalformedRow):
		return fmt.Sprintf("Malformed data: %v", err)
	case errors.Is(err, render.ErrUnsupportedChart), errors.Is(err, render.ErrNoValues):
		return fmt.Sprintf("Could not draw charts: %v", err)
	case errors.Is(err, context.DeadlineExceeded):
		return "Timed out. Try again or raise RENDER_TIMEOUT."
	case errors.Is(err, context.Canceled):
		return "Interrupted."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
