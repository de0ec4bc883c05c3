// backend/src/models/ledger.go
package models

import "time"

// FinanceStatus is the derived standing of a FinanceRecord.
type FinanceStatus string

const (
	StatusPaid    FinanceStatus = "paid"
	StatusCurrent FinanceStatus = "current"
	StatusOverdue FinanceStatus = "overdue"
)

// Entity is a person record (player/customer) in the ledger store.
// Identity for matching purposes is the normalized display name; see the
// names package.
type Entity struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Address      string `json:"address,omitempty"`
}

// Sponsor is a non-person counterparty (business/sponsor) routed away
// from the person path by the denylist.
type Sponsor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Notes       string `json:"notes,omitempty"`
}

// FeeBuckets holds the per-record fee breakdown. TotalOwed is always the
// sum of these buckets, never stored independently of them.
type FeeBuckets struct {
	Registration float64 `json:"registration"`
	Uniform      float64 `json:"uniform"`
	Tournament   float64 `json:"tournament"`
	Facility     float64 `json:"facility"`
	Equipment    float64 `json:"equipment"`
	Other        float64 `json:"other"`
}

// Sum returns the total owed implied by the buckets.
func (b FeeBuckets) Sum() float64 {
	return b.Registration + b.Uniform + b.Tournament + b.Facility + b.Equipment + b.Other
}

// Payment is a single received payment, exclusively owned by one
// FinanceRecord. ID is deterministic given (entity, season, source row)
// so re-imports converge instead of duplicating.
type Payment struct {
	ID         string        `json:"id"`
	Amount     float64       `json:"amount"`
	Date       time.Time     `json:"date"`
	Method     PaymentMethod `json:"method"`
	Reference  string        `json:"reference,omitempty"`
	Notes      string        `json:"notes,omitempty"`
	RecordedBy string        `json:"recorded_by"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// FinanceRecord is the per-entity-per-season aggregate of fees owed and
// payments received. The derived fields are recomputed by the projector
// after every mutation; they are never incremented in place.
type FinanceRecord struct {
	EntityID   string        `json:"entity_id"`
	Season     string        `json:"season"`
	FeeBuckets FeeBuckets    `json:"fee_buckets"`
	Payments   []Payment     `json:"payments"`
	TotalOwed  float64       `json:"total_owed"`
	TotalPaid  float64       `json:"total_paid"`
	Balance    float64       `json:"balance"` // negative = amount owed
	BalanceDue float64       `json:"balance_due"`
	Status     FinanceStatus `json:"status"`
}

// HasPayment reports whether a payment with the given deterministic ID
// is already present.
func (r *FinanceRecord) HasPayment(id string) bool {
	for _, p := range r.Payments {
		if p.ID == id {
			return true
		}
	}
	return false
}

// IncomeRecord is a standalone ledger line for money received outside a
// player's fee account (sponsorships, concessions, fundraising).
type IncomeRecord struct {
	ID              string        `json:"id"`
	Date            time.Time     `json:"date"`
	Source          string        `json:"source"`
	Category        Category      `json:"category"`
	Amount          float64       `json:"amount"`
	Method          PaymentMethod `json:"method"`
	ReferenceNumber string        `json:"reference_number,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	EntityID        string        `json:"entity_id,omitempty"` // cross-reference when known
	RecordedBy      string        `json:"recorded_by"`
}

// ExpenseRecord is a standalone ledger line for money paid out.
type ExpenseRecord struct {
	ID          string        `json:"id"`
	Date        time.Time     `json:"date"`
	Vendor      string        `json:"vendor"`
	Category    Category      `json:"category"`
	Amount      float64       `json:"amount"`
	Method      PaymentMethod `json:"method"`
	CheckNumber string        `json:"check_number,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	RecordedBy  string        `json:"recorded_by"`
}

// EntityPatch describes the contact fields an import may update on an
// existing entity. Empty fields are left untouched on merge.
type EntityPatch struct {
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Address      string `json:"address,omitempty"`
}

// Apply merges the patch into the entity, filling only blank fields so a
// re-import never clobbers manually corrected contact data.
func (p EntityPatch) Apply(e *Entity) {
	if e.ContactEmail == "" && p.ContactEmail != "" {
		e.ContactEmail = p.ContactEmail
	}
	if e.ContactPhone == "" && p.ContactPhone != "" {
		e.ContactPhone = p.ContactPhone
	}
	if e.Address == "" && p.Address != "" {
		e.Address = p.Address
	}
}

// FinancePatch describes the fields an import may change on an existing
// FinanceRecord: bucket overwrites and payments to append. Derived fields
// are never patched directly; the projector recomputes them.
type FinancePatch struct {
	FeeBuckets  *FeeBuckets `json:"fee_buckets,omitempty"`
	NewPayments []Payment   `json:"new_payments,omitempty"`
	Overdue     bool        `json:"overdue,omitempty"`
}
