// backend/src/services/executor.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/clubledger/backend/src/logger"
	"github.com/username/clubledger/backend/src/models"
	"github.com/username/clubledger/backend/src/names"
	"github.com/username/clubledger/backend/src/processors"
	"github.com/username/clubledger/backend/src/store"
	"github.com/username/clubledger/backend/src/utils"
	"golang.org/x/time/rate"
)

// Executor applies projected records to the ledger store, or logs the
// equivalent effect in dry-run mode. Every write uses a deterministic
// key derived from stable source inputs so re-importing the same file
// converges to the same stored state instead of duplicating records.
//
// Dry-run performs no writes and no read-modify-write merges: its
// validation must not depend on store connectivity.
type Executor struct {
	store       store.DocumentStore
	projector   processors.FinanceProjector
	builder     processors.RecordBuilder
	entityCache *cache.Cache
	limiter     *rate.Limiter
	season      string
	operator    string
	dryRun      bool
}

func NewExecutor(st store.DocumentStore, season, operator string, mode Mode, writeRatePerSec int) *Executor {
	if writeRatePerSec <= 0 {
		writeRatePerSec = 50
	}
	return &Executor{
		store:       st,
		projector:   processors.NewFinanceProcessor(),
		builder:     processors.NewRecordBuilder(),
		entityCache: cache.New(15*time.Minute, 30*time.Minute),
		limiter:     rate.NewLimiter(rate.Limit(writeRatePerSec), 1),
		season:      season,
		operator:    operator,
		dryRun:      mode == ModeDryRun,
	}
}

func financeKey(entityID, season string) string {
	return entityID + "_" + season
}

// EnsureEntity resolves a display name to an entity key, creating the
// person record on first sight. The deterministic key is the slug of
// the normalized name; a query fallback catches records the web app
// created under other keys. First match wins on ambiguity.
func (e *Executor) EnsureEntity(ctx context.Context, displayName string, patch models.EntityPatch) (string, error) {
	normalized := names.Normalize(displayName)
	if cached, found := e.entityCache.Get(normalized); found {
		return cached.(string), nil
	}

	key := names.Slug(displayName)
	if e.dryRun {
		logger.L.Info("[DRY RUN] would ensure entity", "name", displayName, "key", key)
		e.entityCache.Set(normalized, key, cache.DefaultExpiration)
		return key, nil
	}

	raw, err := e.store.Get(ctx, store.CollectionPlayers, key)
	switch err {
	case nil:
		var entity models.Entity
		if err := json.Unmarshal(raw, &entity); err != nil {
			return "", fmt.Errorf("decode entity %s: %w", key, err)
		}
		patch.Apply(&entity)
		if err := e.write(ctx, store.CollectionPlayers, key, entity, false); err != nil {
			return "", err
		}
	case store.ErrNotFound:
		found, ferr := e.findEntityByName(ctx, displayName)
		if ferr != nil {
			return "", ferr
		}
		if found != "" {
			e.entityCache.Set(normalized, found, cache.DefaultExpiration)
			return found, nil
		}
		first, last := names.SplitDisplayName(displayName)
		entity := models.Entity{
			ID:          key,
			DisplayName: names.DisplayName(displayName),
			FirstName:   first,
			LastName:    last,
		}
		patch.Apply(&entity)
		if err := e.write(ctx, store.CollectionPlayers, key, entity, false); err != nil {
			return "", err
		}
		logger.L.Info("Created entity", "name", entity.DisplayName, "key", key)
	default:
		return "", fmt.Errorf("lookup entity %s: %w", key, err)
	}

	e.entityCache.Set(normalized, key, cache.DefaultExpiration)
	return key, nil
}

// findEntityByName scans for an existing entity whose stored display
// name normalizes to the same form as the input. Exports vary casing
// and spacing, and the web app stores records under its own keys, so
// the comparison is normalized on both sides. Multiple matches are a
// flagged design limitation: the first wins, with a warning.
func (e *Executor) findEntityByName(ctx context.Context, displayName string) (string, error) {
	docs, err := e.store.List(ctx, store.CollectionPlayers)
	if err != nil {
		return "", fmt.Errorf("scan entities by name: %w", err)
	}
	target := names.Normalize(displayName)
	var matches []string
	for _, doc := range docs {
		var entity models.Entity
		if err := json.Unmarshal(doc.Raw, &entity); err != nil {
			continue // skip undecodable documents rather than failing the scan
		}
		if names.Normalize(entity.DisplayName) == target {
			matches = append(matches, doc.Key)
		}
	}
	if len(matches) == 0 {
		return "", nil
	}
	if len(matches) > 1 {
		logger.L.Warn("Multiple entities match normalized name; first match wins",
			"name", displayName, "matches", len(matches))
	}
	return matches[0], nil
}

// EnsureSponsor records a denylisted (non-person) counterparty on the
// sponsor path.
func (e *Executor) EnsureSponsor(ctx context.Context, displayName string) (string, error) {
	key := names.Slug(displayName)
	if e.dryRun {
		logger.L.Info("[DRY RUN] would ensure sponsor", "name", displayName, "key", key)
		return key, nil
	}
	if _, err := e.store.Get(ctx, store.CollectionSponsors, key); err == nil {
		return key, nil
	} else if err != store.ErrNotFound {
		return "", fmt.Errorf("lookup sponsor %s: %w", key, err)
	}
	sponsor := models.Sponsor{ID: key, DisplayName: displayName}
	if err := e.write(ctx, store.CollectionSponsors, key, sponsor, false); err != nil {
		return "", err
	}
	return key, nil
}

// LookupEntity resolves a counterparty to an existing person entity
// without creating one. Returns "" when unknown.
func (e *Executor) LookupEntity(ctx context.Context, displayName string) (string, error) {
	if e.dryRun {
		return "", nil // dry-run takes the no-match path by design
	}
	normalized := names.Normalize(displayName)
	if cached, found := e.entityCache.Get(normalized); found {
		return cached.(string), nil
	}
	key := names.Slug(displayName)
	if _, err := e.store.Get(ctx, store.CollectionPlayers, key); err == nil {
		e.entityCache.Set(normalized, key, cache.DefaultExpiration)
		return key, nil
	} else if err != store.ErrNotFound {
		return "", err
	}
	return e.findEntityByName(ctx, displayName)
}

// RecordExpense writes one standalone expense ledger line.
func (e *Executor) RecordExpense(ctx context.Context, tx models.CanonicalTransaction) error {
	rec := e.builder.BuildExpense(tx, e.operator)
	if e.dryRun {
		logger.L.Info("[DRY RUN] would record expense",
			"vendor", rec.Vendor, "amount", rec.Amount, "category", rec.Category, "row", tx.RowNumber)
		return nil
	}
	return e.write(ctx, store.CollectionExpenses, rec.ID, rec, false)
}

// RecordIncome writes one income line. Income whose counterparty matches
// an existing person entity is recorded as a payment on that entity's
// season finance record instead, so player payments arriving in the
// income export land on the right account.
func (e *Executor) RecordIncome(ctx context.Context, tx models.CanonicalTransaction) error {
	entityID, err := e.LookupEntity(ctx, tx.CounterpartyName)
	if err != nil {
		return err
	}
	if entityID != "" {
		_, err := e.AddPayment(ctx, entityID, tx, tx.Amount)
		return err
	}

	rec := e.builder.BuildIncome(tx, "", e.operator)
	if e.dryRun {
		logger.L.Info("[DRY RUN] would record income",
			"source", rec.Source, "amount", rec.Amount, "category", rec.Category, "row", tx.RowNumber)
		return nil
	}
	return e.write(ctx, store.CollectionIncome, rec.ID, rec, false)
}

// AddPayment appends a payment to the entity's finance record if its
// deterministic ID is not already present, then re-projects the derived
// fields. Reports whether the payment was added.
func (e *Executor) AddPayment(ctx context.Context, entityID string, tx models.CanonicalTransaction, amount float64) (bool, error) {
	paymentID := processors.PaymentID(entityID, e.season, tx)
	if e.dryRun {
		logger.L.Info("[DRY RUN] would add payment",
			"entity", entityID, "season", e.season, "amount", amount, "paymentId", paymentID, "row", tx.RowNumber)
		return true, nil
	}

	record, err := e.loadFinance(ctx, entityID)
	if err != nil {
		return false, err
	}
	if record.HasPayment(paymentID) {
		logger.L.Debug("Skipping duplicate payment on re-import", "entity", entityID, "paymentId", paymentID)
		return false, nil
	}

	record.Payments = append(record.Payments, models.Payment{
		ID:         paymentID,
		Amount:     utils.Round2(amount),
		Date:       tx.Date,
		Method:     tx.Method,
		Reference:  tx.ReferenceNumber,
		Notes:      tx.Description,
		RecordedBy: e.operator,
		RecordedAt: time.Now().UTC(),
	})
	e.projector.Project(record, record.Status == models.StatusOverdue)
	return true, e.write(ctx, store.CollectionFinances, financeKey(entityID, e.season), record, false)
}

// SetFeeBuckets overwrites the entity's fee buckets for the season with
// the figures derived from the current source file, then re-projects.
// Overwrite, not accumulate: re-importing the same statement must not
// double anyone's charges.
func (e *Executor) SetFeeBuckets(ctx context.Context, entityID string, buckets models.FeeBuckets, overdue bool) error {
	if e.dryRun {
		logger.L.Info("[DRY RUN] would set fee buckets",
			"entity", entityID, "season", e.season, "totalOwed", utils.Round2(buckets.Sum()))
		return nil
	}

	record, err := e.loadFinance(ctx, entityID)
	if err != nil {
		return err
	}
	record.FeeBuckets = buckets
	e.projector.Project(record, overdue)
	return e.write(ctx, store.CollectionFinances, financeKey(entityID, e.season), record, false)
}

// loadFinance reads the entity's finance record for the season, or
// returns a fresh one on first sight.
func (e *Executor) loadFinance(ctx context.Context, entityID string) (*models.FinanceRecord, error) {
	key := financeKey(entityID, e.season)
	raw, err := e.store.Get(ctx, store.CollectionFinances, key)
	if err == store.ErrNotFound {
		return &models.FinanceRecord{EntityID: entityID, Season: e.season}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load finance record %s: %w", key, err)
	}
	var record models.FinanceRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode finance record %s: %w", key, err)
	}
	return &record, nil
}

// write is the single choke point for store mutation: rate-limited,
// strictly sequential, never reached in dry-run.
func (e *Executor) write(ctx context.Context, collection, key string, doc any, merge bool) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := e.store.Set(ctx, collection, key, doc, merge); err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrStoreWrite, collection, key, err)
	}
	return nil
}
