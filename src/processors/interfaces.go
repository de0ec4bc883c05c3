package processors

import (
	"github.com/username/clubledger/backend/src/models"
)

// FinanceProjector derives the financial standing of a FinanceRecord
// from its fee buckets and payment list.
type FinanceProjector interface {
	Project(record *models.FinanceRecord, overdue bool)
}

// RecordBuilder turns canonical transactions into the standalone ledger
// lines (income/expense records) written to the store.
type RecordBuilder interface {
	BuildExpense(tx models.CanonicalTransaction, recordedBy string) models.ExpenseRecord
	BuildIncome(tx models.CanonicalTransaction, entityID, recordedBy string) models.IncomeRecord
}
