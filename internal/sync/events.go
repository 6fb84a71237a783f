package sync

import "time"

const (
	RecipeCreated = "recipe.created"
	RecipeUpdated = "recipe.updated"
	RecipeDeleted = "recipe.deleted"

	FavoriteAdded       = "favorite.added"
	FavoriteRemoved     = "favorite.removed"
	ShoppingCartAdded   = "shopping_cart.added"
	ShoppingCartRemoved = "shopping_cart.removed"

	SubscriptionAdded   = "subscription.added"
	SubscriptionRemoved = "subscription.removed"
)

// Event is one line on the sync stream. UserID is the acting user.
type Event struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	RecipeID int64     `json:"recipe_id"`
	AuthorID string    `json:"author_id,omitempty"`
	Name     string    `json:"name,omitempty"`
	At       time.Time `json:"at"`
}

func NewEvent(typ, userID string, recipeID int64, name string) Event {
	return Event{Type: typ, UserID: userID, RecipeID: recipeID, Name: name, At: time.Now().UTC()}
}

// NewAuthorEvent is a subscription change; name is the author's username.
func NewAuthorEvent(typ, userID, authorID, name string) Event {
	return Event{Type: typ, UserID: userID, AuthorID: authorID, Name: name, At: time.Now().UTC()}
}
