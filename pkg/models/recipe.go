package models

import "time"

// Recipe is the full read projection. IsFavorited and IsInShoppingCart are
// computed for the viewing user at read time; they are never stored.
type Recipe struct {
	ID               int64              `json:"id"`
	Author           RecipeAuthor       `json:"author"`
	Name             string             `json:"name"`
	Text             string             `json:"text"`
	Image            string             `json:"image"`
	CookingTime      int                `json:"cooking_time"`
	Tags             []Tag              `json:"tags"`
	Ingredients      []RecipeIngredient `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// RecipeAuthor is the recipe's author; IsSubscribed is computed for the
// viewing user like the recipe flags.
type RecipeAuthor struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// RecipeIngredient is an ingredient line of a recipe, joined with the
// ingredient's name and unit. ID is the ingredient id.
type RecipeIngredient struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeShort is the minimal projection returned by favorite and shopping
// cart mutations.
type RecipeShort struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// Short projects a full recipe down to RecipeShort.
func (r Recipe) Short() RecipeShort {
	return RecipeShort{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// IngredientLine is one (ingredient, amount) pair of a recipe write.
type IngredientLine struct {
	ID     int64 `json:"id" validate:"required,gt=0"`
	Amount int   `json:"amount" validate:"gte=1,lte=32000"`
}

// ShoppingItem is one aggregated line of a shopping-list export.
type ShoppingItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	TotalAmount     int64  `json:"total_amount"`
}
