// Package rules encodes the occasion and gender styling rules: which roles
// an outfit must fill and the minimum formality tier an occasion demands.
package rules

import "github.com/okian/garb/internal/domain/model"

// Accessory limits per gender profile.
const (
	maleAccessoryLimit   = 3
	femaleAccessoryLimit = 5
	unisexAccessoryLimit = 4
)

// Requirements describes what a valid outfit looks like for one
// (gender, occasion) pairing.
type Requirements struct {
	Gender       model.Gender
	Occasion     model.Occasion
	MinFormality model.Formality

	// Required roles must all be present. DressSatisfies lists the roles a
	// dress stands in for (female profiles: a dress covers top+bottom).
	Required       []model.GarmentRole
	Optional       []model.GarmentRole
	DressSatisfies []model.GarmentRole

	MaxAccessories int
}

// MinFormalityFor maps an occasion to the lowest acceptable formality tier.
func MinFormalityFor(o model.Occasion) model.Formality {
	switch o {
	case model.OccasionFormal, model.OccasionWedding:
		return model.FormalityFormal
	case model.OccasionWork, model.OccasionParty, model.OccasionDate:
		return model.FormalityBusinessCasual
	default:
		return model.FormalityCasual
	}
}

// For returns the outfit requirements for a gender profile and occasion.
// Unknown genders fall back to the unisex rules.
func For(g model.Gender, o model.Occasion) Requirements {
	r := Requirements{
		Gender:         g,
		Occasion:       o,
		MinFormality:   MinFormalityFor(o),
		Required:       []model.GarmentRole{model.RoleTop, model.RoleBottom, model.RoleShoes},
		Optional:       []model.GarmentRole{model.RoleOuterwear, model.RoleAccessory},
		MaxAccessories: unisexAccessoryLimit,
	}

	switch g {
	case model.GenderMale:
		r.MaxAccessories = maleAccessoryLimit
	case model.GenderFemale:
		r.MaxAccessories = femaleAccessoryLimit
		r.DressSatisfies = []model.GarmentRole{model.RoleTop, model.RoleBottom}
	case model.GenderUnisex:
		// defaults above
	default:
		r.Gender = model.GenderUnisex
	}
	return r
}

// Satisfied reports whether the candidate fills every required role. A
// dress counts for each role listed in DressSatisfies.
func (r Requirements) Satisfied(c model.OutfitCandidate) bool {
	_, hasDress := c.Items[model.RoleDress]
	for _, role := range r.Required {
		if _, ok := c.Items[role]; ok {
			continue
		}
		if hasDress && r.dressCovers(role) {
			continue
		}
		return false
	}
	return true
}

func (r Requirements) dressCovers(role model.GarmentRole) bool {
	for _, covered := range r.DressSatisfies {
		if covered == role {
			return true
		}
	}
	return false
}
