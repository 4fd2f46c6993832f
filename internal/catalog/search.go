package catalog

import (
	"strings"

	"food-cart/internal/models"
)

// Filter narrows a restaurant listing. Zero values match everything.
type Filter struct {
	Query          string
	Cuisine        string
	MaxDeliveryFee *models.Money
}

// Search returns the restaurants matching f, in catalog order
func (s *Static) Search(f Filter) []Restaurant {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	var out []Restaurant
	for _, r := range s.restaurants {
		if f.Cuisine != "" && !strings.EqualFold(r.Cuisine, f.Cuisine) {
			continue
		}
		if f.MaxDeliveryFee != nil && r.DeliveryFee > *f.MaxDeliveryFee {
			continue
		}
		if query != "" && !matchesQuery(r, query) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesQuery(r Restaurant, query string) bool {
	if strings.Contains(strings.ToLower(r.Name), query) || strings.Contains(strings.ToLower(r.Cuisine), query) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// MenuFilter selects dishes by dietary attributes
type MenuFilter struct {
	Vegetarian       bool
	Vegan            bool
	GlutenFree       bool
	ExcludeAllergens []string
}

// Matches reports whether item satisfies every requested constraint
func (f MenuFilter) Matches(item MenuItem) bool {
	if f.Vegetarian && !item.Vegetarian {
		return false
	}
	if f.Vegan && !item.Vegan {
		return false
	}
	if f.GlutenFree && !item.GlutenFree {
		return false
	}
	for _, excluded := range f.ExcludeAllergens {
		for _, allergen := range item.Allergens {
			if strings.EqualFold(allergen, excluded) {
				return false
			}
		}
	}
	return true
}

// FilterMenu returns the dishes of menu matching f
func FilterMenu(menu []MenuItem, f MenuFilter) []MenuItem {
	out := make([]MenuItem, 0, len(menu))
	for _, item := range menu {
		if f.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}
