// backend/src/mappers/method.go
package mappers

import "github.com/username/clubledger/backend/src/models"

// DefaultMethodTable maps free-text payment-method strings onto the
// closed method enumeration.
var DefaultMethodTable = []Synonym{
	{"cash", string(models.MethodCash)},
	{"check", string(models.MethodCheck)},
	{"cheque", string(models.MethodCheck)},
	{"ck", string(models.MethodCheck)},
	{"credit card", string(models.MethodCard)},
	{"debit card", string(models.MethodCard)},
	{"card", string(models.MethodCard)},
	{"visa", string(models.MethodCard)},
	{"mastercard", string(models.MethodCard)},
	{"amex", string(models.MethodCard)},
	{"discover", string(models.MethodCard)},
	{"square", string(models.MethodCard)},
	{"stripe", string(models.MethodCard)},
	{"ach", string(models.MethodACH)},
	{"bank transfer", string(models.MethodACH)},
	{"wire", string(models.MethodACH)},
	{"direct deposit", string(models.MethodACH)},
	{"eft", string(models.MethodACH)},
	{"zelle", string(models.MethodZelle)},
	{"venmo", string(models.MethodVenmo)},
	{"paypal", string(models.MethodPayPal)},
}

func NewMethodMapper(table []Synonym) *MethodMapper {
	return &MethodMapper{inner: NewMapper(table, string(models.MethodOther))}
}

type MethodMapper struct {
	inner *Mapper
}

func (m *MethodMapper) Map(raw string) models.PaymentMethod {
	return models.PaymentMethod(m.inner.Map(raw))
}
