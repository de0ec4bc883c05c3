// backend/src/parsers/generic.go
package parsers

import (
	"fmt"
	"io"

	"github.com/username/clubledger/backend/src/mappers"
	"github.com/username/clubledger/backend/src/models"
	"github.com/username/clubledger/backend/src/utils"
)

// genericParser handles the flat single-record-per-row exports: expense,
// income, and invoice statements. Column naming varies wildly between
// export variants, so every logical field is resolved through an ordered
// synonym list.
type genericParser struct {
	importType string
	categories *mappers.CategoryMapper
	methods    *mappers.MethodMapper
}

func newGenericParser(importType string, categories *mappers.CategoryMapper, methods *mappers.MethodMapper) *genericParser {
	return &genericParser{importType: importType, categories: categories, methods: methods}
}

func (p *genericParser) Parse(file io.Reader) (*ParseResult, error) {
	text, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	rows := Tokenize(string(text))
	if len(rows) == 0 {
		return nil, fmt.Errorf("import file contains no rows")
	}

	keys := HeaderRow(rows[0])
	result := &ParseResult{}

	for i, record := range rows[1:] {
		rowNum := i + 2 // 1-based, counting the header
		row := MapRow(keys, record)

		tx, skip, err := p.parseRow(row, rowNum)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Err: err})
			continue
		}
		if skip {
			result.Skipped++
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}

func (p *genericParser) parseRow(row Row, rowNum int) (models.CanonicalTransaction, bool, error) {
	var tx models.CanonicalTransaction

	dateRaw := ResolveField(row, "Date", "Txn Date", "Transaction Date", "Payment Date")
	date, ok := utils.ParseDate(dateRaw)
	if !ok {
		return tx, false, fmt.Errorf("unparseable date %q", dateRaw)
	}

	amountRaw := ResolveField(row, "Amount", "Total", "Amount Paid", "Debit")
	amount, ok := utils.ParseAmount(amountRaw)
	if !ok {
		return tx, false, fmt.Errorf("unparseable amount %q", amountRaw)
	}
	if amount == 0 {
		return tx, true, nil // zero-amount rows are dropped by policy
	}

	var counterparty, reference string
	switch p.importType {
	case TypeExpenses:
		counterparty = ResolveField(row, "Vendor", "Payee", "Paid To", "Name")
		reference = ResolveField(row, "Check #", "Check No", "Check Number", "Num")
	case TypeIncome:
		counterparty = ResolveField(row, "Source", "Customer", "Received From", "Name")
		reference = ResolveField(row, "Reference #", "Ref No", "Reference", "Num")
	case TypeInvoices:
		counterparty = ResolveField(row, "Customer", "Name", "Customer Name")
		reference = ResolveField(row, "Invoice #", "Invoice No", "Num", "Number")
	}
	if counterparty == "" {
		return tx, false, fmt.Errorf("missing counterparty name")
	}

	categoryRaw := ResolveField(row, "Category", "Account", "Item", "Type")
	methodRaw := ResolveField(row, "Payment Method", "Method", "Pmt Method", "Pay Method")

	tx = models.CanonicalTransaction{
		Source:           p.importType,
		Date:             date,
		CategoryRaw:      categoryRaw,
		Category:         p.categories.Map(categoryRaw),
		Amount:           amount,
		CounterpartyName: counterparty,
		MethodRaw:        methodRaw,
		Method:           p.methods.Map(methodRaw),
		ReferenceNumber:  reference,
		Description:      ResolveField(row, "Memo", "Description", "Notes"),
		RowNumber:        rowNum,
	}

	if p.importType == TypeInvoices {
		tx.StatusRaw = ResolveField(row, "Status", "Invoice Status")
		if v, ok := utils.ParseAmount(ResolveField(row, "Balance Due", "Open Balance", "Balance")); ok {
			tx.StatedBalanceDue = &v
		}
	}
	return tx, false, nil
}
