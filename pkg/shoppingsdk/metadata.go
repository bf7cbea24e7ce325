package shoppingsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNoRecipe is the decode cause when a metadata response lists objects but
// none of them is a schema.org Recipe.
var ErrNoRecipe = errors.New("metadata: no Recipe object")

const recipeObjectType = "Recipe"

// RecipeMetadata describes a recipe page the server has scraped.
type RecipeMetadata struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Authority string `json:"authority"`
	Title     string `json:"title"`

	// Recipe is nil when the server sent no structured objects.
	Recipe *Recipe `json:"recipe,omitempty"`
}

// Recipe holds the fields lifted from the page's schema.org Recipe object.
// Empty strings mean the field was absent or had an unusable shape.
type Recipe struct {
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Image       string     `json:"image,omitempty"`
	PrepTime    string     `json:"prepTime,omitempty"`
	CookTime    string     `json:"cookTime,omitempty"`
	TotalTime   string     `json:"totalTime,omitempty"`
	Category    string     `json:"recipeCategory,omitempty"`
	Cuisine     string     `json:"recipeCuisine,omitempty"`
	Nutrition   *Nutrition `json:"nutrition,omitempty"`
}

type Nutrition struct {
	Calories            string `json:"calories,omitempty"`
	CarbohydrateContent string `json:"carbohydrateContent,omitempty"`
	FatContent          string `json:"fatContent,omitempty"`
	FiberContent        string `json:"fiberContent,omitempty"`
	ProteinContent      string `json:"proteinContent,omitempty"`
}

func (m *RecipeMetadata) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        *string         `json:"id"`
		URL       *string         `json:"url"`
		Authority *string         `json:"authority"`
		Title     *string         `json:"title"`
		Objects   json.RawMessage `json:"objects"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.ID == nil:
		return errors.New("metadata: missing id")
	case raw.URL == nil:
		return errors.New("metadata: missing url")
	case raw.Authority == nil:
		return errors.New("metadata: missing authority")
	case raw.Title == nil:
		return errors.New("metadata: missing title")
	}
	if _, err := url.Parse(*raw.URL); err != nil {
		return fmt.Errorf("metadata: invalid url: %w", err)
	}

	*m = RecipeMetadata{
		ID:        *raw.ID,
		URL:       *raw.URL,
		Authority: *raw.Authority,
		Title:     *raw.Title,
	}

	if len(raw.Objects) == 0 || string(raw.Objects) == "null" {
		return nil
	}

	recipe, err := findRecipe(raw.Objects)
	if err != nil {
		return err
	}
	m.Recipe = recipe
	return nil
}

// findRecipe returns the first object whose @type is Recipe.
func findRecipe(data json.RawMessage) (*Recipe, error) {
	var objects []map[string]json.RawMessage
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, fmt.Errorf("metadata: objects: %w", err)
	}

	for _, obj := range objects {
		if !isRecipe(obj["@type"]) {
			continue
		}

		recipe := &Recipe{
			Name:        optionalString(obj["name"]),
			Description: optionalString(obj["description"]),
			Image:       imageURL(obj["image"]),
			PrepTime:    optionalString(obj["prepTime"]),
			CookTime:    optionalString(obj["cookTime"]),
			TotalTime:   optionalString(obj["totalTime"]),
			Category:    stringOrJoined(obj["recipeCategory"]),
			Cuisine:     stringOrJoined(obj["recipeCuisine"]),
		}

		var nutrition Nutrition
		if raw := obj["nutrition"]; len(raw) > 0 && json.Unmarshal(raw, &nutrition) == nil && nutrition != (Nutrition{}) {
			recipe.Nutrition = &nutrition
		}
		return recipe, nil
	}

	return nil, ErrNoRecipe
}

// isRecipe accepts "@type" as a string or, as JSON-LD allows, a list of
// types.
func isRecipe(raw json.RawMessage) bool {
	var single string
	if json.Unmarshal(raw, &single) == nil {
		return single == recipeObjectType
	}
	var many []string
	if json.Unmarshal(raw, &many) == nil {
		for _, t := range many {
			if t == recipeObjectType {
				return true
			}
		}
	}
	return false
}

func optionalString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// imageURL accepts a URL string, a list of URL strings (first wins) or an
// ImageObject with a url.
func imageURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if s := optionalString(raw); s != "" {
		return s
	}

	var many []string
	if json.Unmarshal(raw, &many) == nil && len(many) > 0 {
		return many[0]
	}

	var obj struct {
		URL string `json:"url"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.URL
	}
	return ""
}

// stringOrJoined accepts a string or a list of strings joined with ",".
func stringOrJoined(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if s := optionalString(raw); s != "" {
		return s
	}

	var many []string
	if json.Unmarshal(raw, &many) == nil {
		return strings.Join(many, ",")
	}
	return ""
}
