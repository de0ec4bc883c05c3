// backend/src/parsers/salesdetail.go
package parsers

import (
	"fmt"
	"io"
	"math"

	"github.com/username/clubledger/backend/src/logger"
	"github.com/username/clubledger/backend/src/mappers"
	"github.com/username/clubledger/backend/src/names"
	"github.com/username/clubledger/backend/src/utils"
)

// SponsorSighting is a denylisted name seen as an entity header: the
// name plus the row it first appeared on, for error reporting.
type SponsorSighting struct {
	Name      string
	RowNumber int
}

// SalesDetailResult extends the flat parse result with the per-entity
// subtotals the statement states for itself.
type SalesDetailResult struct {
	ParseResult
	Subtotals []SubtotalCapture
	Sponsors  []SponsorSighting // in order of first sighting, deduplicated
}

// SalesDetailParser drives the row classifier over a multi-row
// sales-by-customer statement.
type SalesDetailParser struct {
	classifier *Classifier
}

func NewSalesDetailParser(categories *mappers.CategoryMapper, denylist *names.Matcher) *SalesDetailParser {
	return &SalesDetailParser{classifier: NewClassifier(categories, denylist)}
}

func (p *SalesDetailParser) Parse(file io.Reader) (*ParseResult, error) {
	res, err := p.ParseStatement(file)
	if err != nil {
		return nil, err
	}
	return &res.ParseResult, nil
}

// ParseStatement tokenizes the statement and runs every row through the
// classifier, threading the machine state explicitly. An entity block
// with no "Total for" row is tolerated: the next header simply replaces
// the context.
func (p *SalesDetailParser) ParseStatement(file io.Reader) (*SalesDetailResult, error) {
	text, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement file: %w", err)
	}

	rows := Tokenize(string(text))
	if len(rows) == 0 {
		return nil, fmt.Errorf("statement file contains no rows")
	}

	result := &SalesDetailResult{}
	state := ClassifierState{}
	seenSponsors := make(map[string]bool)

	for i, row := range rows {
		rowNum := i + 1
		var emission Emission
		state, emission = p.classifier.Step(state, row, rowNum)

		if emission.Tx != nil {
			result.Transactions = append(result.Transactions, *emission.Tx)
		}
		if emission.Subtotal != nil {
			result.Subtotals = append(result.Subtotals, *emission.Subtotal)
		}
		if emission.Sponsor != "" && !seenSponsors[names.Normalize(emission.Sponsor)] {
			seenSponsors[names.Normalize(emission.Sponsor)] = true
			result.Sponsors = append(result.Sponsors, SponsorSighting{Name: emission.Sponsor, RowNumber: rowNum})
		}
	}

	p.checkSubtotals(result)
	return result, nil
}

// checkSubtotals compares each stated subtotal against the sum of the
// details emitted for that entity. A mismatch is logged, not fatal: the
// detail rows are the record, the stated figure is only a cross-check.
func (p *SalesDetailParser) checkSubtotals(result *SalesDetailResult) {
	sums := make(map[string]float64)
	for _, tx := range result.Transactions {
		sums[names.Normalize(tx.CounterpartyName)] += tx.Amount
	}
	for _, sub := range result.Subtotals {
		derived := utils.Round2(sums[names.Normalize(sub.Entity)])
		if math.Abs(derived-sub.Stated) > 0.005 && logger.L != nil {
			logger.L.Warn("Stated subtotal disagrees with detail rows",
				"entity", sub.Entity, "stated", sub.Stated, "derived", derived, "row", sub.RowNumber)
		}
	}
}
