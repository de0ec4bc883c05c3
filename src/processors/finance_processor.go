// backend/src/processors/finance_processor.go
package processors

import (
	"strings"

	"github.com/username/clubledger/backend/src/models"
	"github.com/username/clubledger/backend/src/utils"
)

// financeProcessorImpl implements the FinanceProjector interface.
type financeProcessorImpl struct{}

// NewFinanceProcessor creates a new instance of FinanceProjector.
func NewFinanceProcessor() FinanceProjector {
	return &financeProcessorImpl{}
}

// Project recomputes the derived fields of a FinanceRecord from its fee
// buckets and payment list. Every derived field is computed from scratch
// on every call, so re-projecting already-derived data is a no-op:
// totals are never incremented in place.
//
// Invariants after every call:
//
//	TotalOwed  == sum(FeeBuckets)
//	TotalPaid  == sum(Payments[].Amount)
//	Balance    == TotalPaid - TotalOwed   (negative = amount owed)
//	BalanceDue == max(0, TotalOwed - TotalPaid)
func (p *financeProcessorImpl) Project(record *models.FinanceRecord, overdue bool) {
	record.TotalOwed = utils.Round2(record.FeeBuckets.Sum())

	var paid float64
	for _, payment := range record.Payments {
		paid += payment.Amount
	}
	record.TotalPaid = utils.Round2(paid)

	record.Balance = utils.Round2(record.TotalPaid - record.TotalOwed)
	if record.Balance < 0 {
		record.BalanceDue = -record.Balance
	} else {
		record.BalanceDue = 0
	}

	switch {
	case record.Balance >= 0:
		record.Status = models.StatusPaid
	case overdue:
		record.Status = models.StatusOverdue
	default:
		record.Status = models.StatusCurrent
	}
}

// ParseOverdueSignal reports whether a free-text status string from the
// source system marks the record overdue.
func ParseOverdueSignal(status string) bool {
	s := strings.ToLower(status)
	return strings.Contains(s, "overdue") || strings.Contains(s, "past due")
}

// BucketFor returns a pointer to the fee bucket a category charges into.
// Categories without a dedicated bucket accumulate under Other.
func BucketFor(buckets *models.FeeBuckets, category models.Category) *float64 {
	switch category {
	case models.CategoryRegistration, models.CategoryDues:
		return &buckets.Registration
	case models.CategoryUniform:
		return &buckets.Uniform
	case models.CategoryTournament:
		return &buckets.Tournament
	case models.CategoryFacility:
		return &buckets.Facility
	case models.CategoryEquipment:
		return &buckets.Equipment
	default:
		return &buckets.Other
	}
}
