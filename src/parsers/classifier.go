// backend/src/parsers/classifier.go
package parsers

import (
	"strings"

	"github.com/username/clubledger/backend/src/mappers"
	"github.com/username/clubledger/backend/src/models"
	"github.com/username/clubledger/backend/src/names"
	"github.com/username/clubledger/backend/src/utils"
)

// The sales-detail statement interleaves three row shapes in one table
// with no record-type column: an entity header (name only), dated detail
// rows, and a "Total for <name>" subtotal. Which shape a row is can only
// be decided relative to the rows before it, so classification is an
// explicit state machine whose state is passed in and returned rather
// than carried in a loop variable.

// ClassifierState is the machine state between rows. A zero value is
// the initial seeking state; Entity is the current context name while
// inside an entity's block.
type ClassifierState struct {
	Entity string
}

// Seeking reports whether the machine is between entity blocks.
func (s ClassifierState) Seeking() bool { return s.Entity == "" }

// SubtotalCapture records the stated total-invoiced figure from a
// "Total for <name>" row, kept for cross-checking against the sum of the
// entity's emitted details.
type SubtotalCapture struct {
	Entity    string
	Stated    float64
	RowNumber int
}

// Emission is what one classifier step may produce: at most one of a
// detail transaction, a subtotal capture, or a denylisted (non-person)
// name routed to the sponsor path.
type Emission struct {
	Tx       *models.CanonicalTransaction
	Subtotal *SubtotalCapture
	Sponsor  string
}

const totalForPrefix = "total for "

// Footer and accrual markers that end a report without belonging to any
// entity. Matched against the first column, case-insensitively.
var footerMarkers = []string{"total", "grand total", "accrual basis", "cash basis"}

// salesColumns locates the statement's columns. Defaults follow the
// export's fixed layout; a column-header row inside the file overrides
// them.
type salesColumns struct {
	date, txType, num, item, amount int
}

func defaultSalesColumns() salesColumns {
	return salesColumns{date: 1, txType: 2, num: 3, item: 4, amount: 7}
}

// Classifier assigns sales-detail rows to entities. The category table
// and denylist are injected at construction; per-file column positions
// are re-derived if the file carries its own column-header row.
type Classifier struct {
	categories *mappers.CategoryMapper
	denylist   *names.Matcher
	cols       salesColumns
}

func NewClassifier(categories *mappers.CategoryMapper, denylist *names.Matcher) *Classifier {
	return &Classifier{categories: categories, denylist: denylist, cols: defaultSalesColumns()}
}

// Step consumes one row and returns the next state plus anything the row
// emitted. Row numbering is 1-based within the source file.
func (c *Classifier) Step(state ClassifierState, row []string, rowNum int) (ClassifierState, Emission) {
	if isBlankRow(row) {
		return state, Emission{}
	}

	first := strings.TrimSpace(cell(row, 0))
	lowerFirst := strings.ToLower(first)

	// Column-header row: first cell blank or literal "Name"/"Date",
	// with header tokens further along. Re-derive column positions.
	if c.looksLikeColumnHeader(row) {
		c.cols = c.resolveColumns(row)
		return state, Emission{}
	}

	if strings.HasPrefix(lowerFirst, totalForPrefix) {
		return c.stepSubtotal(state, first, row, rowNum)
	}

	for _, marker := range footerMarkers {
		if lowerFirst == marker || strings.HasPrefix(lowerFirst, marker+":") {
			return state, Emission{}
		}
	}

	date, dated := utils.ParseDate(cell(row, c.cols.date))
	if first != "" && !dated {
		// Entity header. Denylisted names (businesses, sponsors, the
		// sample customer) leave the machine seeking with no context;
		// the name is surfaced for the sponsor path.
		if c.denylist.IsDenied(first) {
			return ClassifierState{}, Emission{Sponsor: first}
		}
		return ClassifierState{Entity: names.DisplayName(first)}, Emission{}
	}

	if state.Seeking() || !dated {
		return state, Emission{}
	}

	amount, ok := utils.ParseAmount(cell(row, c.cols.amount))
	if !ok || amount == 0 {
		// Zero or missing amounts are dropped by policy; the machine
		// stays inside the entity block.
		return state, Emission{}
	}

	categoryRaw := strings.TrimSpace(cell(row, c.cols.item))
	tx := models.CanonicalTransaction{
		Source:           "salesdetail",
		Date:             date,
		CategoryRaw:      categoryRaw,
		Category:         c.categories.Map(categoryRaw),
		Amount:           amount,
		CounterpartyName: state.Entity,
		ReferenceNumber:  strings.TrimSpace(cell(row, c.cols.num)),
		Description:      strings.TrimSpace(cell(row, c.cols.txType)),
		RowNumber:        rowNum,
	}
	return state, Emission{Tx: &tx}
}

func (c *Classifier) stepSubtotal(state ClassifierState, first string, row []string, rowNum int) (ClassifierState, Emission) {
	entity := names.DisplayName(strings.TrimSpace(first[len(totalForPrefix):]))
	if state.Seeking() {
		// Subtotal for an entity we never entered (denylisted or a
		// malformed block). Consume it without emitting.
		return ClassifierState{}, Emission{}
	}

	capture := &SubtotalCapture{Entity: state.Entity, RowNumber: rowNum}
	if entity != "" {
		capture.Entity = entity
	}
	// The stated figure is the last parsable amount on the row.
	for i := len(row) - 1; i > 0; i-- {
		if v, ok := utils.ParseAmount(row[i]); ok {
			capture.Stated = v
			break
		}
	}
	return ClassifierState{}, Emission{Subtotal: capture}
}

func (c *Classifier) looksLikeColumnHeader(row []string) bool {
	first := canonicalKey(cell(row, 0))
	if first != "" && first != "name" && first != "customer" {
		return false
	}
	hasDate, hasAmount := false, false
	for _, f := range row {
		switch canonicalKey(f) {
		case "date", "txndate":
			hasDate = true
		case "amount", "amt", "total":
			hasAmount = true
		}
	}
	return hasDate && hasAmount
}

func (c *Classifier) resolveColumns(header []string) salesColumns {
	cols := defaultSalesColumns()
	for i, f := range header {
		switch canonicalKey(f) {
		case "date", "txndate":
			cols.date = i
		case "type", "transactiontype":
			cols.txType = i
		case "num", "no", "invoice#":
			cols.num = i
		case "item", "memo", "account", "category":
			cols.item = i
		case "amount", "amt":
			cols.amount = i
		}
	}
	return cols
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
