// backend/src/models/canonical.go
package models

import "time"

// Category is the closed set of ledger categories downstream reporting
// relies on. Free-text source categories are mapped onto it by the
// mappers package; anything unrecognized lands on CategoryOther.
type Category string

const (
	CategoryRegistration Category = "registration"
	CategoryUniform      Category = "uniform"
	CategoryTournament   Category = "tournament"
	CategoryFacility     Category = "facility"
	CategoryEquipment    Category = "equipment"
	CategoryInsurance    Category = "insurance"
	CategoryTravel       Category = "travel"
	CategorySupplies     Category = "supplies"
	CategoryFundraising  Category = "fundraising"
	CategorySponsorship  Category = "sponsorship"
	CategoryDues         Category = "dues"
	CategoryConcessions  Category = "concessions"
	CategoryOfficiating  Category = "officiating"
	CategoryCoaching     Category = "coaching"
	CategoryOther        Category = "other"
)

// PaymentMethod is the closed payment-method enumeration.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodCheck  PaymentMethod = "check"
	MethodCard   PaymentMethod = "card"
	MethodACH    PaymentMethod = "ach"
	MethodZelle  PaymentMethod = "zelle"
	MethodVenmo  PaymentMethod = "venmo"
	MethodPayPal PaymentMethod = "paypal"
	MethodOther  PaymentMethod = "other"
)

// CanonicalTransaction is the unified, intermediate representation of one
// ledger line. Each parser is responsible for populating as many of these
// fields as possible directly from the source file, including the mapped
// category and payment method.
type CanonicalTransaction struct {
	Source           string        `json:"source"` // e.g. "expenses", "income", "salesdetail"
	Date             time.Time     `json:"date"`
	CategoryRaw      string        `json:"category_raw"`
	Category         Category      `json:"category"`
	Amount           float64       `json:"amount"` // signed
	CounterpartyName string        `json:"counterparty_name"`
	MethodRaw        string        `json:"method_raw"`
	Method           PaymentMethod `json:"method"`
	ReferenceNumber  string        `json:"reference_number,omitempty"`
	Description      string        `json:"description"`
	RowNumber        int           `json:"row_number"` // 1-based row in the source file

	// Invoice provenance. StatusRaw carries the export's free-text
	// status ("Open", "Past due"); StatedBalanceDue is the balance the
	// source system claims is still owed, used to reconstruct partial
	// payments.
	StatusRaw        string   `json:"status_raw,omitempty"`
	StatedBalanceDue *float64 `json:"stated_balance_due,omitempty"`
}
