package models

// Subscription is an author the viewer follows, with a preview of the
// author's recipes. IsSubscribed is always true in subscription listings and
// is kept so the shape matches other author projections.
type Subscription struct {
	ID           string        `json:"id"`
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	IsSubscribed bool          `json:"is_subscribed"`
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int           `json:"recipes_count"`
}
