package models

import (
	"fmt"
)

// MenuItem represents a dish on a restaurant menu
type MenuItem struct {
	ID              string         `json:"id"`
	RestaurantID    string         `json:"restaurant_id,omitempty"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Price           float64        `json:"price"`
	Category        string         `json:"category"`
	IsAvailable     bool           `json:"is_available"`
	PreparationTime int            `json:"preparation_time,omitempty"` // minutes
	Nutrition       *NutritionInfo `json:"nutritional_info,omitempty"`
}

// NutritionInfo holds the nutritional sub-record of a menu item
type NutritionInfo struct {
	Calories  int      `json:"calories"`
	Protein   float64  `json:"protein"`
	Carbs     float64  `json:"carbs"`
	Fat       float64  `json:"fat"`
	Allergens []string `json:"allergens,omitempty"`
}

// MenuCategory represents the category of a menu item
type MenuCategory string

const (
	MenuCategoryAppetizer MenuCategory = "appetizer"
	MenuCategoryMain      MenuCategory = "main"
	MenuCategorySide      MenuCategory = "side"
	MenuCategoryDessert   MenuCategory = "dessert"
	MenuCategoryBeverage  MenuCategory = "beverage"
)

// ValidateMenuItem validates a menu item before it is sent to the backend
func ValidateMenuItem(item *MenuItem) error {
	if item.Name == "" {
		return fmt.Errorf("menu item name is required")
	}
	if item.Price <= 0 {
		return fmt.Errorf("menu item price must be greater than 0")
	}
	if item.Category == "" {
		return fmt.Errorf("menu item category is required")
	}
	if item.PreparationTime < 0 {
		return fmt.Errorf("menu item preparation time cannot be negative")
	}
	if n := item.Nutrition; n != nil {
		if n.Calories < 0 || n.Protein < 0 || n.Carbs < 0 || n.Fat < 0 {
			return fmt.Errorf("menu item nutritional values cannot be negative")
		}
	}
	return nil
}

// HasAllergen checks if the item declares a specific allergen
func (mi *MenuItem) HasAllergen(allergen string) bool {
	if mi.Nutrition == nil {
		return false
	}
	for _, alg := range mi.Nutrition.Allergens {
		if alg == allergen {
			return true
		}
	}
	return false
}

// IsInCategory checks if the item belongs to a specific category
func (mi *MenuItem) IsInCategory(category MenuCategory) bool {
	return mi.Category == string(category)
}
