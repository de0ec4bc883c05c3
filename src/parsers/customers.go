// backend/src/parsers/customers.go
package parsers

import (
	"fmt"
	"io"

	"github.com/username/clubledger/backend/src/names"
	"github.com/username/clubledger/backend/src/utils"
)

// CustomerRecord is one row of a customer-list export. The importer
// decides whether it becomes a person entity or is routed to the sponsor
// path; the parser only extracts fields.
type CustomerRecord struct {
	DisplayName string
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Address     string
	Balance     float64 // stated open balance, 0 when absent
	RowNumber   int
}

// CustomerResult is the outcome of parsing a customer export.
type CustomerResult struct {
	Customers []CustomerRecord
	Skipped   int
	Errors    []RowError
}

// ParseCustomers parses a customer-list export. The Name column is free
// text and may arrive as "Last, First"; both name parts and the rebuilt
// "First Last" display form are captured.
func ParseCustomers(file io.Reader) (*CustomerResult, error) {
	text, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read customer file: %w", err)
	}

	rows := Tokenize(string(text))
	if len(rows) == 0 {
		return nil, fmt.Errorf("customer file contains no rows")
	}

	keys := HeaderRow(rows[0])
	result := &CustomerResult{}

	for i, record := range rows[1:] {
		rowNum := i + 2
		row := MapRow(keys, record)

		name := ResolveField(row, "Name", "Customer", "Customer Name", "Full Name")
		if name == "" {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Err: fmt.Errorf("missing customer name")})
			continue
		}

		first, last := names.SplitDisplayName(name)
		cust := CustomerRecord{
			DisplayName: names.DisplayName(name),
			FirstName:   first,
			LastName:    last,
			Email:       ResolveField(row, "Email", "E-mail", "Email Address"),
			Phone:       ResolveField(row, "Phone", "Phone Number", "Main Phone"),
			Address:     ResolveField(row, "Address", "Billing Address", "Street Address"),
			RowNumber:   rowNum,
		}
		if v, ok := utils.ParseAmount(ResolveField(row, "Balance", "Open Balance", "Balance Total")); ok {
			cust.Balance = v
		}
		result.Customers = append(result.Customers, cust)
	}
	return result, nil
}
