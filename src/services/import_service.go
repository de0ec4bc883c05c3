// backend/src/services/import_service.go
package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/username/clubledger/backend/src/logger"
	"github.com/username/clubledger/backend/src/mappers"
	"github.com/username/clubledger/backend/src/models"
	"github.com/username/clubledger/backend/src/names"
	"github.com/username/clubledger/backend/src/parsers"
	"github.com/username/clubledger/backend/src/processors"
	"github.com/username/clubledger/backend/src/utils"
)

type importServiceImpl struct {
	executor      *Executor
	categories    *mappers.CategoryMapper
	methods       *mappers.MethodMapper
	denylist      *names.Matcher
	progressEvery int
	mode          Mode
}

func NewImportService(
	executor *Executor,
	categories *mappers.CategoryMapper,
	methods *mappers.MethodMapper,
	denylist *names.Matcher,
	progressEvery int,
	mode Mode,
) ImportService {
	if progressEvery <= 0 {
		progressEvery = 25
	}
	return &importServiceImpl{
		executor:      executor,
		categories:    categories,
		methods:       methods,
		denylist:      denylist,
		progressEvery: progressEvery,
		mode:          mode,
	}
}

func (s *importServiceImpl) label() string {
	if s.mode == ModeDryRun {
		return "[DRY RUN] "
	}
	return ""
}

func (s *importServiceImpl) progress(done, total, imported, errs int) {
	if done%s.progressEvery == 0 && done != 0 {
		fmt.Printf("%sProcessed %d/%d rows (%d imported, %d errors)\n",
			s.label(), done, total, imported, errs)
	}
}

func (s *importServiceImpl) finish(summary *ImportSummary, start time.Time) *ImportSummary {
	summary.Elapsed = time.Since(start)
	summary.DryRun = s.mode == ModeDryRun
	logger.L.Info("Batch finished",
		"imported", summary.Imported, "skipped", summary.Skipped,
		"errors", len(summary.Errors), "elapsed", summary.Elapsed, "dryRun", summary.DryRun)
	return summary
}

// ImportExpenses applies an expense export: one standalone expense
// ledger line per row.
func (s *importServiceImpl) ImportExpenses(ctx context.Context, file io.Reader) (*ImportSummary, error) {
	return s.importFlat(ctx, file, parsers.TypeExpenses, s.executor.RecordExpense)
}

// ImportIncome applies an income export. Rows whose counterparty is an
// existing person entity become payments on the season's finance record;
// everything else becomes a standalone income line.
func (s *importServiceImpl) ImportIncome(ctx context.Context, file io.Reader) (*ImportSummary, error) {
	return s.importFlat(ctx, file, parsers.TypeIncome, s.executor.RecordIncome)
}

// importFlat is the shared row loop for the single-record-per-row
// exports: strictly sequential, side effects in input order, per-row
// failures collected without aborting the batch.
func (s *importServiceImpl) importFlat(ctx context.Context, file io.Reader, importType string,
	apply func(context.Context, models.CanonicalTransaction) error) (*ImportSummary, error) {

	start := time.Now()
	parser, err := parsers.GetParser(importType, s.categories, s.methods)
	if err != nil {
		return nil, err
	}
	parsed, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	summary := &ImportSummary{Skipped: parsed.Skipped}
	for _, re := range parsed.Errors {
		summary.Errors = append(summary.Errors, ImportError{Row: re.Row, Err: re.Err})
	}

	total := len(parsed.Transactions)
	for i, tx := range parsed.Transactions {
		if err := apply(ctx, tx); err != nil {
			summary.Errors = append(summary.Errors, ImportError{Row: tx.RowNumber, Err: err})
		} else {
			summary.Imported++
		}
		s.progress(i+1, total, summary.Imported, len(summary.Errors))
	}
	return s.finish(summary, start), nil
}

// ImportInvoices applies an invoice export. Invoiced amounts are charged
// per entity (overwriting the season's derived buckets); a stated
// balance-due lower than the invoiced amount reconstructs the partial
// payment the source system already received.
func (s *importServiceImpl) ImportInvoices(ctx context.Context, file io.Reader) (*ImportSummary, error) {
	start := time.Now()
	parser, err := parsers.GetParser(parsers.TypeInvoices, s.categories, s.methods)
	if err != nil {
		return nil, err
	}
	parsed, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	summary := &ImportSummary{Skipped: parsed.Skipped}
	for _, re := range parsed.Errors {
		summary.Errors = append(summary.Errors, ImportError{Row: re.Row, Err: re.Err})
	}

	charges := newChargeSet()
	for _, tx := range parsed.Transactions {
		if s.denylist.IsDenied(tx.CounterpartyName) {
			// Businesses do not get player finance records.
			if _, err := s.executor.EnsureSponsor(ctx, tx.CounterpartyName); err != nil {
				summary.Errors = append(summary.Errors, ImportError{Row: tx.RowNumber, Err: err})
			} else {
				summary.Skipped++
			}
			continue
		}
		charges.addInvoice(tx)
	}

	s.applyCharges(ctx, charges, summary)
	return s.finish(summary, start), nil
}

// ImportCustomers applies a customer-list export: person entities with
// contact details, denylisted names routed to the sponsor path, and a
// stated open balance seeding the season's Other fee bucket.
func (s *importServiceImpl) ImportCustomers(ctx context.Context, file io.Reader) (*ImportSummary, error) {
	start := time.Now()
	parsed, err := parsers.ParseCustomers(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	summary := &ImportSummary{Skipped: parsed.Skipped}
	for _, re := range parsed.Errors {
		summary.Errors = append(summary.Errors, ImportError{Row: re.Row, Err: re.Err})
	}

	total := len(parsed.Customers)
	for i, cust := range parsed.Customers {
		if err := s.importCustomer(ctx, cust); err != nil {
			summary.Errors = append(summary.Errors, ImportError{Row: cust.RowNumber, Err: err})
		} else {
			summary.Imported++
		}
		s.progress(i+1, total, summary.Imported, len(summary.Errors))
	}
	return s.finish(summary, start), nil
}

func (s *importServiceImpl) importCustomer(ctx context.Context, cust parsers.CustomerRecord) error {
	if s.denylist.IsDenied(cust.DisplayName) {
		_, err := s.executor.EnsureSponsor(ctx, cust.DisplayName)
		return err
	}

	patch := models.EntityPatch{
		ContactEmail: cust.Email,
		ContactPhone: cust.Phone,
		Address:      cust.Address,
	}
	entityID, err := s.executor.EnsureEntity(ctx, cust.DisplayName, patch)
	if err != nil {
		return err
	}
	if cust.Balance != 0 {
		buckets := models.FeeBuckets{Other: utils.Round2(cust.Balance)}
		return s.executor.SetFeeBuckets(ctx, entityID, buckets, false)
	}
	return nil
}

// ImportSalesDetail applies the stateful multi-row statement. The mode
// selectors limit which record kinds the run touches.
func (s *importServiceImpl) ImportSalesDetail(ctx context.Context, file io.Reader, opts QBOptions) (*ImportSummary, error) {
	start := time.Now()
	parser := parsers.NewSalesDetailParser(s.categories, s.denylist)
	parsed, err := parser.ParseStatement(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	summary := &ImportSummary{Skipped: parsed.Skipped}
	for _, re := range parsed.Errors {
		summary.Errors = append(summary.Errors, ImportError{Row: re.Row, Err: re.Err})
	}

	if opts.SponsorsOnly || (!opts.PlayersOnly && !opts.FinancesOnly) {
		for _, sp := range parsed.Sponsors {
			if _, err := s.executor.EnsureSponsor(ctx, sp.Name); err != nil {
				summary.Errors = append(summary.Errors, ImportError{Row: sp.RowNumber, Err: err})
			} else {
				summary.Imported++
			}
		}
		if opts.SponsorsOnly {
			return s.finish(summary, start), nil
		}
	}

	charges := newChargeSet()
	for _, tx := range parsed.Transactions {
		charges.addDetail(tx)
	}

	if opts.PlayersOnly {
		for _, entity := range charges.order {
			if _, err := s.executor.EnsureEntity(ctx, entity, models.EntityPatch{}); err != nil {
				summary.Errors = append(summary.Errors, ImportError{Row: charges.firstRow[entity], Err: err})
			} else {
				summary.Imported++
			}
		}
		return s.finish(summary, start), nil
	}

	s.applyCharges(ctx, charges, summary)
	return s.finish(summary, start), nil
}

// applyCharges writes aggregated per-entity charges in first-appearance
// order: ensure the entity, overwrite the season's fee buckets, then
// append any reconstructed payments.
func (s *importServiceImpl) applyCharges(ctx context.Context, charges *chargeSet, summary *ImportSummary) {
	total := len(charges.order)
	for i, entity := range charges.order {
		agg := charges.byEntity[entity]
		rowNum := charges.firstRow[entity]

		entityID, err := s.executor.EnsureEntity(ctx, entity, models.EntityPatch{})
		if err != nil {
			summary.Errors = append(summary.Errors, ImportError{Row: rowNum, Err: err})
			continue
		}
		if err := s.executor.SetFeeBuckets(ctx, entityID, agg.buckets, agg.overdue); err != nil {
			summary.Errors = append(summary.Errors, ImportError{Row: rowNum, Err: err})
			continue
		}
		failed := false
		for _, pay := range agg.payments {
			if _, err := s.executor.AddPayment(ctx, entityID, pay.tx, pay.amount); err != nil {
				summary.Errors = append(summary.Errors, ImportError{Row: pay.tx.RowNumber, Err: err})
				failed = true
			}
		}
		if !failed {
			summary.Imported++
		}
		s.progress(i+1, total, summary.Imported, len(summary.Errors))
	}
}

// chargeSet aggregates a run's charges per entity, preserving
// first-appearance order so writes stay aligned with the input.
type chargeSet struct {
	order    []string
	firstRow map[string]int
	byEntity map[string]*entityCharges
}

type entityCharges struct {
	buckets  models.FeeBuckets
	overdue  bool
	payments []impliedPayment
}

type impliedPayment struct {
	tx     models.CanonicalTransaction
	amount float64
}

func newChargeSet() *chargeSet {
	return &chargeSet{
		firstRow: make(map[string]int),
		byEntity: make(map[string]*entityCharges),
	}
}

func (c *chargeSet) get(tx models.CanonicalTransaction) *entityCharges {
	entity := tx.CounterpartyName
	agg, ok := c.byEntity[entity]
	if !ok {
		agg = &entityCharges{}
		c.byEntity[entity] = agg
		c.order = append(c.order, entity)
		c.firstRow[entity] = tx.RowNumber
	}
	return agg
}

// addDetail charges a sales-detail line into the bucket its category
// maps to.
func (c *chargeSet) addDetail(tx models.CanonicalTransaction) {
	agg := c.get(tx)
	bucket := processors.BucketFor(&agg.buckets, tx.Category)
	*bucket = utils.Round2(*bucket + tx.Amount)
}

// addInvoice charges the invoiced amount and, when the stated balance
// due is lower, reconstructs the already-received partial payment.
func (c *chargeSet) addInvoice(tx models.CanonicalTransaction) {
	agg := c.get(tx)
	bucket := processors.BucketFor(&agg.buckets, tx.Category)
	*bucket = utils.Round2(*bucket + tx.Amount)

	if processors.ParseOverdueSignal(tx.StatusRaw) {
		agg.overdue = true
	}
	if tx.StatedBalanceDue != nil {
		if paid := utils.Round2(tx.Amount - *tx.StatedBalanceDue); paid > 0 {
			agg.payments = append(agg.payments, impliedPayment{tx: tx, amount: paid})
		}
	}
}
