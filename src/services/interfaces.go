package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Mode selects whether a batch mutates the ledger store or only reports
// what it would do.
type Mode string

const (
	ModeLive   Mode = "live"
	ModeDryRun Mode = "dry-run"
)

var (
	ErrParsingFailed = errors.New("error parsing file")
	ErrStoreWrite    = errors.New("store write failed")
)

// ImportError is one per-record failure. Per-record failures never abort
// the batch; they are collected and reported at the end.
type ImportError struct {
	Row int
	Err error
}

func (e ImportError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// ImportSummary is the outcome of one batch.
type ImportSummary struct {
	Imported int
	Skipped  int
	Errors   []ImportError
	Elapsed  time.Duration
	DryRun   bool
}

// QBOptions selects which record kinds a sales-detail import touches.
type QBOptions struct {
	PlayersOnly  bool
	FinancesOnly bool
	SponsorsOnly bool
}

// ImportService is the batch entry point per export variant.
type ImportService interface {
	ImportExpenses(ctx context.Context, file io.Reader) (*ImportSummary, error)
	ImportIncome(ctx context.Context, file io.Reader) (*ImportSummary, error)
	ImportInvoices(ctx context.Context, file io.Reader) (*ImportSummary, error)
	ImportCustomers(ctx context.Context, file io.Reader) (*ImportSummary, error)
	ImportSalesDetail(ctx context.Context, file io.Reader, opts QBOptions) (*ImportSummary, error)
}
