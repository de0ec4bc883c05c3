// backend/src/parsers/parser.go
package parsers

import (
	"fmt"
	"io"

	"github.com/username/clubledger/backend/src/mappers"
	"github.com/username/clubledger/backend/src/models"
)

// RowError records a per-row parse failure. Rows that fail to parse are
// skipped and reported; they never abort the batch.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// ParseResult is the outcome of tokenizing and canonicalizing one file.
type ParseResult struct {
	Transactions []models.CanonicalTransaction
	Skipped      int // rows dropped by policy (zero amounts, footers)
	Errors       []RowError
}

// Parser converts one export file into canonical transactions.
type Parser interface {
	Parse(file io.Reader) (*ParseResult, error)
}

// ImportType names the export variants the generic importer accepts.
const (
	TypeExpenses = "expenses"
	TypeIncome   = "income"
	TypeInvoices = "invoices"
)

// GetParser returns the parser for a generic import type. The customer
// list and the multi-row sales-detail statement have dedicated entry
// points (ParseCustomers, NewSalesDetailParser) because they do not
// reduce to a flat transaction list.
func GetParser(importType string, categories *mappers.CategoryMapper, methods *mappers.MethodMapper) (Parser, error) {
	switch importType {
	case TypeExpenses, TypeIncome, TypeInvoices:
		return newGenericParser(importType, categories, methods), nil
	default:
		return nil, fmt.Errorf("no parser available for import type: %s", importType)
	}
}
