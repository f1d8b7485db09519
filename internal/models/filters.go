package models

import (
	"database/sql/driver"
	"encoding/json"
)

// FilterConfig is the per-user filter selection persisted on the profile as
// JSONB. Zero values mean "filter not applied"; MaxCost stays a string so a
// non-numeric value can be ignored at query time instead of rejected on save.
type FilterConfig struct {
	MealTypes    []MealType `json:"meal_types,omitempty"`
	LowCalorie   bool       `json:"low_calorie,omitempty"`
	IsVegetarian bool       `json:"is_vegetarian,omitempty"`
	NoGluten     bool       `json:"no_gluten,omitempty"`
	DishType     *DishType  `json:"dish_type,omitempty"`
	MaxCost      string     `json:"max_cost,omitempty"`
}

// HasMealType reports whether the slot is among the selected meal types.
func (f FilterConfig) HasMealType(slot MealType) bool {
	for _, m := range f.MealTypes {
		if m == slot {
			return true
		}
	}
	return false
}

// Value implements the driver.Valuer interface
func (f FilterConfig) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements the sql.Scanner interface
func (f *FilterConfig) Scan(value interface{}) error {
	if value == nil {
		*f = FilterConfig{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, f)
}
