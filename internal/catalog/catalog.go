package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"food-cart/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// MenuItem is a single orderable dish
type MenuItem struct {
	ID          string       `yaml:"id" json:"id"`
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description" json:"description,omitempty"`
	Category    string       `yaml:"category" json:"category"`
	Price       models.Money `yaml:"price" json:"price"`
	Vegetarian  bool         `yaml:"vegetarian" json:"vegetarian"`
	Vegan       bool         `yaml:"vegan" json:"vegan"`
	GlutenFree  bool         `yaml:"gluten_free" json:"gluten_free"`
	Spicy       bool         `yaml:"spicy" json:"spicy"`
	Popular     bool         `yaml:"popular" json:"popular"`
	Allergens   []string     `yaml:"allergens" json:"allergens,omitempty"`
}

// Restaurant is a catalog restaurant together with its menu
type Restaurant struct {
	ID              string       `yaml:"id" json:"id"`
	Name            string       `yaml:"name" json:"name"`
	Description     string       `yaml:"description" json:"description"`
	Cuisine         string       `yaml:"cuisine" json:"cuisine"`
	Rating          float64      `yaml:"rating" json:"rating"`
	DeliveryFee     models.Money `yaml:"delivery_fee" json:"delivery_fee"`
	DeliveryTimeMin int          `yaml:"delivery_time_min" json:"delivery_time_min"`
	DeliveryTimeMax int          `yaml:"delivery_time_max" json:"delivery_time_max"`
	MinOrder        models.Money `yaml:"min_order" json:"min_order"`
	Tags            []string     `yaml:"tags" json:"tags"`
	Menu            []MenuItem   `yaml:"menu" json:"menu"`
}

// EstimatedDeliveryTime formats the delivery window, e.g. "25-35 min"
func (r Restaurant) EstimatedDeliveryTime() string {
	return fmt.Sprintf("%d-%d min", r.DeliveryTimeMin, r.DeliveryTimeMax)
}

// Static is an immutable in-memory catalog. It is safe for concurrent reads.
type Static struct {
	restaurants []Restaurant
	byID        map[string]int
}

type document struct {
	Restaurants []Restaurant `yaml:"restaurants"`
}

// Load parses a YAML catalog document
func Load(r io.Reader) (*Static, error) {
	var doc document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(doc.Restaurants)
}

// Default loads the catalog embedded in the binary
func Default() (*Static, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// New builds a catalog from restaurants, rejecting duplicate ids
func New(restaurants []Restaurant) (*Static, error) {
	s := &Static{
		restaurants: restaurants,
		byID:        make(map[string]int, len(restaurants)),
	}
	for i, r := range restaurants {
		if r.ID == "" {
			return nil, fmt.Errorf("restaurant at index %d has no id", i)
		}
		if _, dup := s.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate restaurant id %q", r.ID)
		}
		seen := make(map[string]bool, len(r.Menu))
		for _, item := range r.Menu {
			if seen[item.ID] {
				return nil, fmt.Errorf("restaurant %q: duplicate menu item id %q", r.ID, item.ID)
			}
			seen[item.ID] = true
		}
		s.byID[r.ID] = i
	}
	return s, nil
}

func (s *Static) FindRestaurant(id string) (Restaurant, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Restaurant{}, false
	}
	return s.restaurants[i], true
}

func (s *Static) FindMenuItem(restaurantID, itemID string) (MenuItem, bool) {
	r, ok := s.FindRestaurant(restaurantID)
	if !ok {
		return MenuItem{}, false
	}
	for _, item := range r.Menu {
		if item.ID == itemID {
			return item, true
		}
	}
	return MenuItem{}, false
}

// Restaurants returns every restaurant in catalog order
func (s *Static) Restaurants() []Restaurant {
	out := make([]Restaurant, len(s.restaurants))
	copy(out, s.restaurants)
	return out
}
