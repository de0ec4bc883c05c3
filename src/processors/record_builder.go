// backend/src/processors/record_builder.go
package processors

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/username/clubledger/backend/src/models"
)

// Namespace for deterministic record IDs. Hashing stable source fields
// under a fixed namespace means re-importing the same file produces the
// same IDs, which is what makes the upsert idempotent.
var recordNamespace = uuid.MustParse("8a9c1a52-6c1e-4c39-9f17-3d2b64d20a11")

// DeterministicID derives a stable UUID from the given source fields.
func DeterministicID(parts ...string) string {
	var key string
	for i, p := range parts {
		if i > 0 {
			key += "|"
		}
		key += p
	}
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}

// PaymentID derives the deterministic ID for a payment belonging to one
// (entity, season, source row) triple. The row number is part of the
// identity: two $50 cash payments logged the same day are two payments,
// while a re-import of the same file carries the same row numbers and
// converges on the same IDs.
func PaymentID(entityKey, season string, tx models.CanonicalTransaction) string {
	return DeterministicID("payment", entityKey, season,
		tx.Date.Format("2006-01-02"), fmt.Sprintf("%.2f", math.Abs(tx.Amount)),
		tx.ReferenceNumber, fmt.Sprintf("%d", tx.RowNumber))
}

type recordBuilderImpl struct{}

// NewRecordBuilder creates a new instance of RecordBuilder.
func NewRecordBuilder() RecordBuilder {
	return &recordBuilderImpl{}
}

func (b *recordBuilderImpl) BuildExpense(tx models.CanonicalTransaction, recordedBy string) models.ExpenseRecord {
	return models.ExpenseRecord{
		ID: DeterministicID("expense", tx.Date.Format("2006-01-02"),
			tx.CounterpartyName, fmt.Sprintf("%.2f", tx.Amount), tx.ReferenceNumber),
		Date:        tx.Date,
		Vendor:      tx.CounterpartyName,
		Category:    tx.Category,
		Amount:      math.Abs(tx.Amount), // expenses are stored as positive outflows
		Method:      tx.Method,
		CheckNumber: tx.ReferenceNumber,
		Notes:       tx.Description,
		RecordedBy:  recordedBy,
	}
}

func (b *recordBuilderImpl) BuildIncome(tx models.CanonicalTransaction, entityID, recordedBy string) models.IncomeRecord {
	return models.IncomeRecord{
		ID: DeterministicID("income", tx.Date.Format("2006-01-02"),
			tx.CounterpartyName, fmt.Sprintf("%.2f", tx.Amount), tx.ReferenceNumber),
		Date:            tx.Date,
		Source:          tx.CounterpartyName,
		Category:        tx.Category,
		Amount:          math.Abs(tx.Amount),
		Method:          tx.Method,
		ReferenceNumber: tx.ReferenceNumber,
		Notes:           tx.Description,
		EntityID:        entityID,
		RecordedBy:      recordedBy,
	}
}
