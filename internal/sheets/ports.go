package sheets

import (
	"context"

	"salesheet/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionWriter replaces the Sales Entry sheet with txs.
	TransactionWriter interface {
		WriteTransactions(ctx context.Context, txs []core.Transaction) error
	}

	// SummaryWriter replaces the Daily Summary and Product Analysis sheets.
	SummaryWriter interface {
		WriteSummaries(ctx context.Context, daily []core.DailySummary, products []core.ProductSummary) error
	}

	// TransactionReader reads the Sales Entry sheet back. Malformed rows are
	// dropped and counted in the returned Import rather than failing the read.
	TransactionReader interface {
		ReadTransactions(ctx context.Context) (Import, error)
	}

	Workbook interface {
		TransactionWriter
		SummaryWriter
		TransactionReader
	}
)
