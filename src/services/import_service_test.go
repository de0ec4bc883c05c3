package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/username/clubledger/backend/src/mappers"
	"github.com/username/clubledger/backend/src/models"
	"github.com/username/clubledger/backend/src/names"
	"github.com/username/clubledger/backend/src/store"
)

func newTestService(st store.DocumentStore, mode Mode) ImportService {
	return NewImportService(
		newTestExecutor(st, mode),
		mappers.NewCategoryMapper(mappers.DefaultCategoryTable),
		mappers.NewMethodMapper(mappers.DefaultMethodTable),
		names.NewMatcher(names.DefaultDenylist),
		1000, // progress output off for tests
		mode,
	)
}

const invoicesInput = `Date,Customer,Item,Amount,Invoice #,Status,Balance Due
2/1/2025,Jane Doe,Registration Fee,350.00,1001,Open,150.00
2/1/2025,Jane Doe,Uniform,75.00,1002,Open,75.00
2/2/2025,Bob Smith,Registration Fee,350.00,1003,Past Due,350.00
2/3/2025,Acme Sporting Goods,Sponsorship,500.00,1004,Paid,
`

func TestImportInvoices(t *testing.T) {
	st := newMemStore()
	svc := newTestService(st, ModeLive)

	summary, err := svc.ImportInvoices(context.Background(), strings.NewReader(invoicesInput))
	if err != nil {
		t.Fatalf("ImportInvoices: %v", err)
	}
	if len(summary.Errors) != 0 {
		t.Fatalf("errors = %v", summary.Errors)
	}
	// Two entities applied cleanly, the denylisted invoice skipped.
	if summary.Imported != 2 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 2 imported / 1 skipped", summary)
	}

	var jane models.FinanceRecord
	st.mustGet(t, store.CollectionFinances, "jane-doe_2025", &jane)
	if jane.FeeBuckets.Registration != 350.00 || jane.FeeBuckets.Uniform != 75.00 {
		t.Errorf("jane buckets = %+v", jane.FeeBuckets)
	}
	// Invoice 1001 states 150 still due of 350: the 200 already received
	// is reconstructed as a payment.
	if jane.TotalPaid != 200.00 || jane.BalanceDue != 225.00 {
		t.Errorf("jane = %+v", jane)
	}
	if jane.Status != models.StatusCurrent {
		t.Errorf("jane.Status = %q", jane.Status)
	}

	var bob models.FinanceRecord
	st.mustGet(t, store.CollectionFinances, "bob-smith_2025", &bob)
	if bob.Status != models.StatusOverdue {
		t.Errorf("bob.Status = %q, want overdue", bob.Status)
	}
	if bob.TotalPaid != 0 || bob.BalanceDue != 350.00 {
		t.Errorf("bob = %+v", bob)
	}

	// The business went to the sponsor path, never the player path.
	if st.count(store.CollectionSponsors) != 1 {
		t.Errorf("got %d sponsors, want 1", st.count(store.CollectionSponsors))
	}
	if st.count(store.CollectionPlayers) != 2 {
		t.Errorf("got %d players, want 2", st.count(store.CollectionPlayers))
	}
}

// Re-running the same import (a fresh process over the same file) must
// converge to the same stored state: no doubled charges, no duplicate
// payments.
func TestImportInvoicesIdempotent(t *testing.T) {
	st := newMemStore()
	ctx := context.Background()

	if _, err := newTestService(st, ModeLive).ImportInvoices(ctx, strings.NewReader(invoicesInput)); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if _, err := newTestService(st, ModeLive).ImportInvoices(ctx, strings.NewReader(invoicesInput)); err != nil {
		t.Fatalf("second import: %v", err)
	}

	var jane models.FinanceRecord
	st.mustGet(t, store.CollectionFinances, "jane-doe_2025", &jane)
	if jane.TotalOwed != 425.00 {
		t.Errorf("TotalOwed = %v, want 425.00", jane.TotalOwed)
	}
	if len(jane.Payments) != 1 || jane.TotalPaid != 200.00 {
		t.Errorf("payments duplicated on re-import: %+v", jane)
	}
	if st.count(store.CollectionPlayers) != 2 || st.count(store.CollectionSponsors) != 1 {
		t.Errorf("entities duplicated on re-import")
	}
}

func TestImportExpensesCollectsRowErrors(t *testing.T) {
	input := `Date,Paid To,Category,Amount,Payment Method
3/4/2025,City Parks Department,Field Rental,1200.00,Check
bad-date,Nobody,Misc,10.00,Cash
3/6/2025,Acme Sporting Goods,Equipment,450.00,Card
`
	st := newMemStore()
	svc := newTestService(st, ModeLive)

	summary, err := svc.ImportExpenses(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportExpenses: %v", err)
	}
	// The bad row is reported, the rows around it still apply.
	if summary.Imported != 2 {
		t.Errorf("Imported = %d, want 2", summary.Imported)
	}
	if len(summary.Errors) != 1 || summary.Errors[0].Row != 3 {
		t.Errorf("errors = %+v, want one for row 3", summary.Errors)
	}
	if st.count(store.CollectionExpenses) != 2 {
		t.Errorf("got %d expense docs, want 2", st.count(store.CollectionExpenses))
	}
}

func TestImportCustomers(t *testing.T) {
	input := `Name,Email,Phone,Open Balance
"Doe, Jane",jane@example.com,555-0101,425.00
Bob Smith,bob@example.com,,
Acme Sporting Goods,sales@acme.example,,
`
	st := newMemStore()
	svc := newTestService(st, ModeLive)

	summary, err := svc.ImportCustomers(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportCustomers: %v", err)
	}
	if summary.Imported != 3 || len(summary.Errors) != 0 {
		t.Errorf("summary = %+v", summary)
	}

	var jane models.Entity
	st.mustGet(t, store.CollectionPlayers, "jane-doe", &jane)
	if jane.ContactEmail != "jane@example.com" || jane.ContactPhone != "555-0101" {
		t.Errorf("jane = %+v", jane)
	}

	// A stated open balance seeds the season's Other bucket.
	var finance models.FinanceRecord
	st.mustGet(t, store.CollectionFinances, "jane-doe_2025", &finance)
	if finance.FeeBuckets.Other != 425.00 || finance.BalanceDue != 425.00 {
		t.Errorf("finance = %+v", finance)
	}

	// Bob has no balance, so no finance record is created for him.
	if st.count(store.CollectionFinances) != 1 {
		t.Errorf("got %d finance records, want 1", st.count(store.CollectionFinances))
	}

	if st.count(store.CollectionPlayers) != 2 || st.count(store.CollectionSponsors) != 1 {
		t.Errorf("players = %d, sponsors = %d", st.count(store.CollectionPlayers), st.count(store.CollectionSponsors))
	}
}

const salesDetailInput = `,Date,Type,Num,Item,,,Amount
Jane Doe
,3/4/2025,Invoice,1001,Registration Fee,,,350.00
,3/18/2025,Invoice,1002,Uniform,,,75.00
"Total for Jane Doe",,,,,,,425.00
Acme Sporting Goods
,3/5/2025,Invoice,1003,Sponsorship,,,500.00
"Total for Acme Sporting Goods",,,,,,,500.00
TOTAL,,,,,,,925.00
`

func TestImportSalesDetail(t *testing.T) {
	st := newMemStore()
	svc := newTestService(st, ModeLive)

	summary, err := svc.ImportSalesDetail(context.Background(), strings.NewReader(salesDetailInput), QBOptions{})
	if err != nil {
		t.Fatalf("ImportSalesDetail: %v", err)
	}
	if len(summary.Errors) != 0 {
		t.Fatalf("errors = %v", summary.Errors)
	}

	var jane models.FinanceRecord
	st.mustGet(t, store.CollectionFinances, "jane-doe_2025", &jane)
	if jane.FeeBuckets.Registration != 350.00 || jane.FeeBuckets.Uniform != 75.00 {
		t.Errorf("buckets = %+v", jane.FeeBuckets)
	}
	if jane.TotalOwed != 425.00 || jane.Status != models.StatusCurrent {
		t.Errorf("jane = %+v", jane)
	}

	if st.count(store.CollectionSponsors) != 1 {
		t.Errorf("got %d sponsors, want 1", st.count(store.CollectionSponsors))
	}
	// The denylisted block produced no player and no finance record.
	if st.count(store.CollectionPlayers) != 1 || st.count(store.CollectionFinances) != 1 {
		t.Errorf("players = %d, finances = %d", st.count(store.CollectionPlayers), st.count(store.CollectionFinances))
	}
}

func TestImportSalesDetailPlayersOnly(t *testing.T) {
	st := newMemStore()
	svc := newTestService(st, ModeLive)

	if _, err := svc.ImportSalesDetail(context.Background(), strings.NewReader(salesDetailInput), QBOptions{PlayersOnly: true}); err != nil {
		t.Fatalf("ImportSalesDetail: %v", err)
	}
	if st.count(store.CollectionPlayers) != 1 {
		t.Errorf("got %d players, want 1", st.count(store.CollectionPlayers))
	}
	if st.count(store.CollectionFinances) != 0 || st.count(store.CollectionSponsors) != 0 {
		t.Errorf("players-only run touched finance or sponsor records")
	}
}

func TestImportSalesDetailSponsorsOnly(t *testing.T) {
	st := newMemStore()
	svc := newTestService(st, ModeLive)

	if _, err := svc.ImportSalesDetail(context.Background(), strings.NewReader(salesDetailInput), QBOptions{SponsorsOnly: true}); err != nil {
		t.Fatalf("ImportSalesDetail: %v", err)
	}
	if st.count(store.CollectionSponsors) != 1 {
		t.Errorf("got %d sponsors, want 1", st.count(store.CollectionSponsors))
	}
	if st.count(store.CollectionPlayers) != 0 || st.count(store.CollectionFinances) != 0 {
		t.Errorf("sponsors-only run touched player or finance records")
	}
}

// sponsorFailStore refuses sponsor writes so the error path is
// observable.
type sponsorFailStore struct {
	*memStore
}

func (s *sponsorFailStore) Set(ctx context.Context, collection, key string, doc any, merge bool) error {
	if collection == store.CollectionSponsors {
		return errors.New("sponsor write refused")
	}
	return s.memStore.Set(ctx, collection, key, doc, merge)
}

func TestImportSalesDetailSponsorErrorCarriesRow(t *testing.T) {
	st := &sponsorFailStore{memStore: newMemStore()}
	svc := newTestService(st, ModeLive)

	summary, err := svc.ImportSalesDetail(context.Background(), strings.NewReader(salesDetailInput), QBOptions{})
	if err != nil {
		t.Fatalf("ImportSalesDetail: %v", err)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", summary.Errors)
	}
	// The error points at the statement row the sponsor header was seen
	// on.
	if summary.Errors[0].Row != 6 {
		t.Errorf("error row = %d, want 6", summary.Errors[0].Row)
	}
}

// A dry run over a real file must produce the same counts as a live run
// without any store connectivity at all.
func TestImportDryRun(t *testing.T) {
	svc := newTestService(nil, ModeDryRun)

	summary, err := svc.ImportInvoices(context.Background(), strings.NewReader(invoicesInput))
	if err != nil {
		t.Fatalf("ImportInvoices (dry run): %v", err)
	}
	if !summary.DryRun {
		t.Error("summary not flagged as dry run")
	}
	if summary.Imported != 2 || summary.Skipped != 1 || len(summary.Errors) != 0 {
		t.Errorf("summary = %+v, want 2 imported / 1 skipped", summary)
	}

	summary, err = svc.ImportSalesDetail(context.Background(), strings.NewReader(salesDetailInput), QBOptions{})
	if err != nil {
		t.Fatalf("ImportSalesDetail (dry run): %v", err)
	}
	if !summary.DryRun || len(summary.Errors) != 0 {
		t.Errorf("summary = %+v", summary)
	}
}
