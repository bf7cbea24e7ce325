package shoppingsdk

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/shoppinghelp/pkg/shref"
)

// ItemType distinguishes what a list item points at.
type ItemType string

const (
	ItemTypeRecipe     ItemType = "recipe"
	ItemTypeIngredient ItemType = "ingredient"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	return t == ItemTypeRecipe || t == ItemTypeIngredient
}

func (t ItemType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid item type %q", string(t))
	}
	return []byte(t), nil
}

func (t *ItemType) UnmarshalText(text []byte) error {
	v := ItemType(text)
	if !v.Valid() {
		return fmt.Errorf("invalid item type %q", string(text))
	}
	*t = v
	return nil
}

// List is a shopping list. Items is nil when the list is empty.
type List struct {
	ID    string     `json:"id"`
	Ref   *shref.Ref `json:"ref,omitempty"`
	Items []ListItem `json:"items,omitempty"`
}

// UnmarshalJSON requires an id and drops items that fail to decode instead
// of failing the whole list.
func (l *List) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    *string         `json:"id"`
		Ref   *shref.Ref      `json:"ref"`
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.ID == nil {
		return errors.New("list: missing id")
	}

	*l = List{ID: *raw.ID, Ref: raw.Ref}

	var elems []json.RawMessage
	if len(raw.Items) == 0 || json.Unmarshal(raw.Items, &elems) != nil {
		return nil
	}
	for _, elem := range elems {
		var item ListItem
		if err := json.Unmarshal(elem, &item); err != nil {
			continue
		}
		l.Items = append(l.Items, item)
	}
	return nil
}

// ListItem is one entry of a List. Optional fields are nil or empty when the
// server omitted them.
type ListItem struct {
	ID         string            `json:"id"`
	Ref        *shref.Ref        `json:"ref,omitempty"`
	Type       ItemType          `json:"type"`
	Name       string            `json:"name"`
	URL        string            `json:"url,omitempty"`
	ImageURL   string            `json:"imageUrl,omitempty"`
	Checked    *bool             `json:"checked,omitempty"`
	Quantity   *float64          `json:"quantity,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// UnmarshalJSON requires id, type and name.
func (i *ListItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         *string           `json:"id"`
		Ref        *shref.Ref        `json:"ref"`
		Type       *ItemType         `json:"type"`
		Name       *string           `json:"name"`
		URL        string            `json:"url"`
		ImageURL   string            `json:"imageUrl"`
		Checked    *bool             `json:"checked"`
		Quantity   *float64          `json:"quantity"`
		Attributes map[string]string `json:"attributes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.ID == nil:
		return errors.New("list item: missing id")
	case raw.Type == nil:
		return errors.New("list item: missing type")
	case raw.Name == nil:
		return errors.New("list item: missing name")
	}

	*i = ListItem{
		ID:         *raw.ID,
		Ref:        raw.Ref,
		Type:       *raw.Type,
		Name:       *raw.Name,
		URL:        raw.URL,
		ImageURL:   raw.ImageURL,
		Checked:    raw.Checked,
		Quantity:   raw.Quantity,
		Attributes: raw.Attributes,
	}
	return nil
}

// ListCreatePayload is the body of a create list request.
type ListCreatePayload struct {
	Ref         shref.Ref `json:"ref"`
	Name        string    `json:"name"`
	UniqueItems bool      `json:"uniqueItems"`
	Checkboxes  bool      `json:"checkboxes"`
	Quantities  bool      `json:"quantities"`
}

// NewListCreatePayload returns a payload for ref with unique items on,
// checkboxes and quantities off, named after the ref type.
func NewListCreatePayload(ref shref.Ref) ListCreatePayload {
	return ListCreatePayload{
		Ref:         ref,
		Name:        ref.Type().String(),
		UniqueItems: true,
	}
}

// ListItemCreatePayload is the body of an add item request.
type ListItemCreatePayload struct {
	Ref        *shref.Ref        `json:"ref,omitempty"`
	Type       ItemType          `json:"type"`
	Name       string            `json:"name"`
	URL        string            `json:"url,omitempty"`
	ImageURL   string            `json:"imageUrl,omitempty"`
	Checked    *bool             `json:"checked,omitempty"`
	Quantity   *float64          `json:"quantity,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// ListItemUpdatePayload is the body of an update item request. ID selects
// the item and is also sent in the body.
type ListItemUpdatePayload struct {
	ID         string            `json:"id"`
	Ref        *shref.Ref        `json:"ref,omitempty"`
	Type       ItemType          `json:"type"`
	Name       string            `json:"name"`
	URL        string            `json:"url,omitempty"`
	ImageURL   string            `json:"imageUrl,omitempty"`
	Checked    *bool             `json:"checked,omitempty"`
	Quantity   *float64          `json:"quantity,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// UpdatePayload returns an update body carrying the item's current values.
func (i ListItem) UpdatePayload() ListItemUpdatePayload {
	return ListItemUpdatePayload{
		ID:         i.ID,
		Ref:        i.Ref,
		Type:       i.Type,
		Name:       i.Name,
		URL:        i.URL,
		ImageURL:   i.ImageURL,
		Checked:    i.Checked,
		Quantity:   i.Quantity,
		Attributes: i.Attributes,
	}
}
