package recipe

import (
	"strings"

	"foodgram/pkg/models"
)

const (
	MinCookingTime = 1
	MaxCookingTime = 32000
	MinAmount      = 1
	MaxAmount      = 32000
)

// RecipeInput is the complete write contract for a recipe. Create validates
// it as sent; Update validates the result of merging RecipeUpdate onto the
// stored recipe.
type RecipeInput struct {
	Ingredients []models.IngredientLine `json:"ingredients" validate:"required,min=1,unique=ID,dive"`
	Tags        []int64                 `json:"tags" validate:"required,min=1,unique,dive,gt=0"`
	Image       string                  `json:"image" validate:"required"`
	Name        string                  `json:"name" validate:"required,max=256"`
	Text        string                  `json:"text" validate:"required,max=10000"`
	CookingTime int                     `json:"cooking_time" validate:"gte=1,lte=32000"`
}

// RecipeUpdate carries optional scalars; ingredients and tags are required
// in full and replace the stored sets.
type RecipeUpdate struct {
	Ingredients []models.IngredientLine `json:"ingredients"`
	Tags        []int64                 `json:"tags"`
	Image       *string                 `json:"image"`
	Name        *string                 `json:"name"`
	Text        *string                 `json:"text"`
	CookingTime *int                    `json:"cooking_time"`
}

func (in RecipeInput) normalized() RecipeInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Text = strings.TrimSpace(in.Text)
	in.Image = strings.TrimSpace(in.Image)
	return in
}

func (u RecipeUpdate) merge(cur *fields) RecipeInput {
	in := RecipeInput{
		Ingredients: u.Ingredients,
		Tags:        u.Tags,
		Image:       cur.Image,
		Name:        cur.Name,
		Text:        cur.Text,
		CookingTime: cur.CookingTime,
	}
	if u.Image != nil {
		in.Image = *u.Image
	}
	if u.Name != nil {
		in.Name = *u.Name
	}
	if u.Text != nil {
		in.Text = *u.Text
	}
	if u.CookingTime != nil {
		in.CookingTime = *u.CookingTime
	}
	return in.normalized()
}

func ingredientIDs(lines []models.IngredientLine) []int64 {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	return ids
}
