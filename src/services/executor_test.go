package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/username/clubledger/backend/src/logger"
	"github.com/username/clubledger/backend/src/models"
	"github.com/username/clubledger/backend/src/store"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// memStore is an in-memory DocumentStore for tests.
type memStore struct {
	docs map[string]map[string][]byte
	sets int
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, collection, key string) ([]byte, error) {
	raw, ok := m.docs[collection][key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return raw, nil
}

func (m *memStore) Set(_ context.Context, collection, key string, doc any, merge bool) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string][]byte)
	}
	if existing, ok := m.docs[collection][key]; ok && merge {
		var base, overlay map[string]any
		if err := json.Unmarshal(existing, &base); err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &overlay); err != nil {
			return err
		}
		for k, v := range overlay {
			base[k] = v
		}
		if raw, err = json.Marshal(base); err != nil {
			return err
		}
	}
	m.docs[collection][key] = raw
	m.sets++
	return nil
}

func (m *memStore) Add(ctx context.Context, collection string, doc any) (string, error) {
	key := fmt.Sprintf("gen-%d", m.sets)
	return key, m.Set(ctx, collection, key, doc, false)
}

func (m *memStore) List(_ context.Context, collection string) ([]store.Document, error) {
	var out []store.Document
	for key, raw := range m.docs[collection] {
		out = append(out, store.Document{Key: key, Raw: raw})
	}
	return out, nil
}

func (m *memStore) count(collection string) int { return len(m.docs[collection]) }

func (m *memStore) mustGet(t *testing.T, collection, key string, into any) {
	t.Helper()
	raw, err := m.Get(context.Background(), collection, key)
	if err != nil {
		t.Fatalf("Get(%s, %s): %v", collection, key, err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		t.Fatalf("decode %s/%s: %v", collection, key, err)
	}
}

func newTestExecutor(st store.DocumentStore, mode Mode) *Executor {
	return NewExecutor(st, "2025", "tester", mode, 1000)
}

func TestEnsureEntityCreatesOnce(t *testing.T) {
	st := newMemStore()
	ex := newTestExecutor(st, ModeLive)
	ctx := context.Background()

	key1, err := ex.EnsureEntity(ctx, "Doe, Jane", models.EntityPatch{ContactEmail: "jane@example.com"})
	if err != nil {
		t.Fatalf("EnsureEntity: %v", err)
	}
	key2, err := ex.EnsureEntity(ctx, "doe,  JANE", models.EntityPatch{})
	if err != nil {
		t.Fatalf("EnsureEntity (repeat): %v", err)
	}
	if key1 != key2 {
		t.Errorf("same normalized name resolved to different keys: %q vs %q", key1, key2)
	}
	if st.count(store.CollectionPlayers) != 1 {
		t.Errorf("got %d player docs, want 1", st.count(store.CollectionPlayers))
	}

	var entity models.Entity
	st.mustGet(t, store.CollectionPlayers, key1, &entity)
	if entity.DisplayName != "Jane Doe" || entity.FirstName != "Jane" || entity.LastName != "Doe" {
		t.Errorf("entity = %+v", entity)
	}
	if entity.ContactEmail != "jane@example.com" {
		t.Errorf("ContactEmail = %q", entity.ContactEmail)
	}
}

func TestEnsureEntityPatchFillsBlanksOnly(t *testing.T) {
	st := newMemStore()
	ctx := context.Background()

	ex := newTestExecutor(st, ModeLive)
	key, err := ex.EnsureEntity(ctx, "Jane Doe", models.EntityPatch{ContactEmail: "original@example.com"})
	if err != nil {
		t.Fatalf("EnsureEntity: %v", err)
	}

	// Fresh executor so the cache does not short-circuit the lookup.
	ex = newTestExecutor(st, ModeLive)
	if _, err := ex.EnsureEntity(ctx, "Jane Doe", models.EntityPatch{
		ContactEmail: "clobber@example.com",
		ContactPhone: "555-0101",
	}); err != nil {
		t.Fatalf("EnsureEntity (repeat): %v", err)
	}

	var entity models.Entity
	st.mustGet(t, store.CollectionPlayers, key, &entity)
	if entity.ContactEmail != "original@example.com" {
		t.Errorf("re-import clobbered ContactEmail: %q", entity.ContactEmail)
	}
	if entity.ContactPhone != "555-0101" {
		t.Errorf("blank ContactPhone not filled: %q", entity.ContactPhone)
	}
}

func TestEnsureEntityScanFallback(t *testing.T) {
	st := newMemStore()
	ctx := context.Background()

	// A record the web app created under its own key.
	seeded := models.Entity{ID: "app-generated-id", DisplayName: "Jane Doe"}
	if err := st.Set(ctx, store.CollectionPlayers, "app-generated-id", seeded, false); err != nil {
		t.Fatal(err)
	}

	ex := newTestExecutor(st, ModeLive)
	key, err := ex.EnsureEntity(ctx, "Jane Doe", models.EntityPatch{})
	if err != nil {
		t.Fatalf("EnsureEntity: %v", err)
	}
	if key != "app-generated-id" {
		t.Errorf("key = %q, want the existing record's key", key)
	}
	if st.count(store.CollectionPlayers) != 1 {
		t.Errorf("fallback created a duplicate entity: %d docs", st.count(store.CollectionPlayers))
	}
}

// Matching against stored records is exact-after-normalization: a
// casing or spacing variant of an existing name must resolve to the
// existing record, never create a second person.
func TestEnsureEntityScanFallbackNormalizes(t *testing.T) {
	st := newMemStore()
	ctx := context.Background()

	seeded := models.Entity{ID: "app-generated-id", DisplayName: "Jane Doe"}
	if err := st.Set(ctx, store.CollectionPlayers, "app-generated-id", seeded, false); err != nil {
		t.Fatal(err)
	}

	ex := newTestExecutor(st, ModeLive)
	key, err := ex.EnsureEntity(ctx, "JANE   DOE", models.EntityPatch{})
	if err != nil {
		t.Fatalf("EnsureEntity: %v", err)
	}
	if key != "app-generated-id" {
		t.Errorf("key = %q, want the existing record's key", key)
	}
	if st.count(store.CollectionPlayers) != 1 {
		t.Errorf("casing variant created a duplicate entity: %d docs", st.count(store.CollectionPlayers))
	}
}

func TestAddPaymentDeduplicates(t *testing.T) {
	st := newMemStore()
	ex := newTestExecutor(st, ModeLive)
	ctx := context.Background()

	tx := models.CanonicalTransaction{
		Date:            time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Amount:          350.00,
		Method:          models.MethodVenmo,
		ReferenceNumber: "VN-881",
		RowNumber:       2,
	}

	added, err := ex.AddPayment(ctx, "jane-doe", tx, 350.00)
	if err != nil || !added {
		t.Fatalf("first AddPayment = (%v, %v), want (true, nil)", added, err)
	}
	added, err = ex.AddPayment(ctx, "jane-doe", tx, 350.00)
	if err != nil {
		t.Fatalf("second AddPayment: %v", err)
	}
	if added {
		t.Error("re-adding the same source row reported added")
	}

	var record models.FinanceRecord
	st.mustGet(t, store.CollectionFinances, "jane-doe_2025", &record)
	if len(record.Payments) != 1 {
		t.Fatalf("got %d payments, want 1", len(record.Payments))
	}
	if record.TotalPaid != 350.00 {
		t.Errorf("TotalPaid = %v, want 350.00", record.TotalPaid)
	}
}

// Two payments that coincide on date, amount, and reference are still
// two payments when they come from different source rows.
func TestAddPaymentKeepsDistinctSameDayRows(t *testing.T) {
	st := newMemStore()
	ex := newTestExecutor(st, ModeLive)
	ctx := context.Background()

	first := models.CanonicalTransaction{
		Date:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Amount:    50.00,
		Method:    models.MethodCash,
		RowNumber: 2,
	}
	second := first
	second.RowNumber = 7

	if added, err := ex.AddPayment(ctx, "jane-doe", first, 50.00); err != nil || !added {
		t.Fatalf("first AddPayment = (%v, %v), want (true, nil)", added, err)
	}
	if added, err := ex.AddPayment(ctx, "jane-doe", second, 50.00); err != nil || !added {
		t.Fatalf("second AddPayment = (%v, %v), want (true, nil)", added, err)
	}

	var record models.FinanceRecord
	st.mustGet(t, store.CollectionFinances, "jane-doe_2025", &record)
	if len(record.Payments) != 2 {
		t.Fatalf("got %d payments, want 2", len(record.Payments))
	}
	if record.TotalPaid != 100.00 {
		t.Errorf("TotalPaid = %v, want 100.00", record.TotalPaid)
	}
}

func TestSetFeeBucketsOverwrites(t *testing.T) {
	st := newMemStore()
	ex := newTestExecutor(st, ModeLive)
	ctx := context.Background()

	buckets := models.FeeBuckets{Registration: 350.00, Uniform: 75.00}
	if err := ex.SetFeeBuckets(ctx, "jane-doe", buckets, false); err != nil {
		t.Fatalf("SetFeeBuckets: %v", err)
	}
	if err := ex.SetFeeBuckets(ctx, "jane-doe", buckets, false); err != nil {
		t.Fatalf("SetFeeBuckets (repeat): %v", err)
	}

	var record models.FinanceRecord
	st.mustGet(t, store.CollectionFinances, "jane-doe_2025", &record)
	if record.TotalOwed != 425.00 {
		t.Errorf("TotalOwed = %v, want 425.00 (buckets must overwrite, not accumulate)", record.TotalOwed)
	}
	if record.BalanceDue != 425.00 || record.Status != models.StatusCurrent {
		t.Errorf("record = %+v", record)
	}
}

func TestRecordIncomeRouting(t *testing.T) {
	st := newMemStore()
	ex := newTestExecutor(st, ModeLive)
	ctx := context.Background()

	if _, err := ex.EnsureEntity(ctx, "Jane Doe", models.EntityPatch{}); err != nil {
		t.Fatal(err)
	}

	base := models.CanonicalTransaction{
		Date:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Category: models.CategoryRegistration,
		Amount:   350.00,
	}

	known := base
	known.CounterpartyName = "Jane Doe"
	known.ReferenceNumber = "VN-881"
	if err := ex.RecordIncome(ctx, known); err != nil {
		t.Fatalf("RecordIncome (known entity): %v", err)
	}

	unknown := base
	unknown.CounterpartyName = "Riverside Concessions"
	unknown.Category = models.CategoryConcessions
	if err := ex.RecordIncome(ctx, unknown); err != nil {
		t.Fatalf("RecordIncome (unknown source): %v", err)
	}

	// The known counterparty landed on the finance record, the unknown
	// one as a standalone income line.
	var record models.FinanceRecord
	st.mustGet(t, store.CollectionFinances, "jane-doe_2025", &record)
	if len(record.Payments) != 1 || record.TotalPaid != 350.00 {
		t.Errorf("finance record = %+v", record)
	}
	if st.count(store.CollectionIncome) != 1 {
		t.Errorf("got %d income docs, want 1", st.count(store.CollectionIncome))
	}
}

func TestDryRunNeverTouchesStore(t *testing.T) {
	// A nil store proves dry-run validates without store connectivity.
	ex := newTestExecutor(nil, ModeDryRun)
	ctx := context.Background()

	tx := models.CanonicalTransaction{
		Date:             time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		CounterpartyName: "Jane Doe",
		Amount:           350.00,
	}

	if _, err := ex.EnsureEntity(ctx, "Jane Doe", models.EntityPatch{}); err != nil {
		t.Errorf("EnsureEntity: %v", err)
	}
	if _, err := ex.EnsureSponsor(ctx, "Acme Sporting Goods"); err != nil {
		t.Errorf("EnsureSponsor: %v", err)
	}
	if err := ex.RecordExpense(ctx, tx); err != nil {
		t.Errorf("RecordExpense: %v", err)
	}
	if err := ex.RecordIncome(ctx, tx); err != nil {
		t.Errorf("RecordIncome: %v", err)
	}
	if _, err := ex.AddPayment(ctx, "jane-doe", tx, 350.00); err != nil {
		t.Errorf("AddPayment: %v", err)
	}
	if err := ex.SetFeeBuckets(ctx, "jane-doe", models.FeeBuckets{Registration: 350.00}, false); err != nil {
		t.Errorf("SetFeeBuckets: %v", err)
	}
}
