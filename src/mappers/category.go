// backend/src/mappers/category.go
package mappers

import "github.com/username/clubledger/backend/src/models"

// DefaultCategoryTable covers the vendor/category/account strings seen
// across years of club exports. Order is significant for the substring
// phase; more specific tokens come before generic ones.
var DefaultCategoryTable = []Synonym{
	{"registration", string(models.CategoryRegistration)},
	{"reg fee", string(models.CategoryRegistration)},
	{"sign up", string(models.CategoryRegistration)},
	{"signup", string(models.CategoryRegistration)},
	{"uniform", string(models.CategoryUniform)},
	{"jersey", string(models.CategoryUniform)},
	{"apparel", string(models.CategoryUniform)},
	{"spirit wear", string(models.CategoryUniform)},
	{"tournament", string(models.CategoryTournament)},
	{"tourney", string(models.CategoryTournament)},
	{"entry fee", string(models.CategoryTournament)},
	{"facility", string(models.CategoryFacility)},
	{"facilities", string(models.CategoryFacility)},
	{"field rental", string(models.CategoryFacility)},
	{"gym rental", string(models.CategoryFacility)},
	{"rent", string(models.CategoryFacility)},
	{"utilities", string(models.CategoryFacility)},
	{"equipment", string(models.CategoryEquipment)},
	{"balls", string(models.CategoryEquipment)},
	{"gear", string(models.CategoryEquipment)},
	{"insurance", string(models.CategoryInsurance)},
	{"travel", string(models.CategoryTravel)},
	{"hotel", string(models.CategoryTravel)},
	{"lodging", string(models.CategoryTravel)},
	{"mileage", string(models.CategoryTravel)},
	{"supplies", string(models.CategorySupplies)},
	{"office", string(models.CategorySupplies)},
	{"printing", string(models.CategorySupplies)},
	{"fundraiser", string(models.CategoryFundraising)},
	{"fundraising", string(models.CategoryFundraising)},
	{"raffle", string(models.CategoryFundraising)},
	{"sponsor", string(models.CategorySponsorship)},
	{"sponsorship", string(models.CategorySponsorship)},
	{"donation", string(models.CategorySponsorship)},
	{"dues", string(models.CategoryDues)},
	{"membership", string(models.CategoryDues)},
	{"concession", string(models.CategoryConcessions)},
	{"snack bar", string(models.CategoryConcessions)},
	{"referee", string(models.CategoryOfficiating)},
	{"umpire", string(models.CategoryOfficiating)},
	{"official", string(models.CategoryOfficiating)},
	{"coach", string(models.CategoryCoaching)},
	{"clinic", string(models.CategoryCoaching)},
	{"training", string(models.CategoryCoaching)},
}

// NewCategoryMapper builds the category mapper from an injected table so
// deployments can extend the vocabulary without code changes.
func NewCategoryMapper(table []Synonym) *CategoryMapper {
	return &CategoryMapper{inner: NewMapper(table, string(models.CategoryOther))}
}

type CategoryMapper struct {
	inner *Mapper
}

func (m *CategoryMapper) Map(raw string) models.Category {
	return models.Category(m.inner.Map(raw))
}
