package domain

import (
	"encoding/json"
	"fmt"
)

// Attributes is a catalog product document without its id. Values are kept
// as the raw JSON the catalog sent, so fields this service does not know
// about survive into the saved cart unchanged.
type Attributes map[string]json.RawMessage

// String returns the attribute as a string, or "" if it is absent or not a string.
func (a Attributes) String(key string) string {
	var s string
	if raw, ok := a[key]; ok && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

// Number returns the attribute as a number, or 0 if it is absent or not a number.
func (a Attributes) Number(key string) float64 {
	var f float64
	if raw, ok := a[key]; ok && json.Unmarshal(raw, &f) == nil {
		return f
	}
	return 0
}

// Title is the display name. Catalogs name it "title" or "name".
func (a Attributes) Title() string {
	if t := a.String("title"); t != "" {
		return t
	}
	return a.String("name")
}

// Price is the unit price.
func (a Attributes) Price() float64 { return a.Number("price") }

// Image is the product image URL.
func (a Attributes) Image() string { return a.String("image") }

func (a Attributes) clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// splitDocument decodes a JSON object and removes the given typed keys from
// the attribute set, returning their raw values.
func splitDocument(data []byte, keys ...string) (Attributes, map[string]json.RawMessage, error) {
	var doc Attributes
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}
	if doc == nil {
		return nil, nil, fmt.Errorf("expected a JSON object")
	}
	typed := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if raw, ok := doc[k]; ok {
			typed[k] = raw
			delete(doc, k)
		}
	}
	return doc, typed, nil
}

func decodeInt(typed map[string]json.RawMessage, key string, dst *int) error {
	raw, ok := typed[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Product is the catalog document for a product. Everything besides the id
// is opaque metadata copied into a line item when it is first added.
type Product struct {
	ID         int
	Attributes Attributes
}

// NewProduct builds a product with the storefront's usual attributes.
func NewProduct(id int, title string, price float64, image string) Product {
	return Product{ID: id, Attributes: Attributes{
		"title": mustRaw(title),
		"price": mustRaw(price),
		"image": mustRaw(image),
	}}
}

func mustRaw(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

// MarshalJSON writes the product document.
func (p Product) MarshalJSON() ([]byte, error) {
	doc := p.Attributes.clone()
	doc["id"] = mustRaw(p.ID)
	return json.Marshal(map[string]json.RawMessage(doc))
}

// UnmarshalJSON reads a product document, keeping unknown fields.
func (p *Product) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	attrs, typed, err := splitDocument(data, "id")
	if err != nil {
		return err
	}
	var id int
	if err := decodeInt(typed, "id", &id); err != nil {
		return err
	}
	*p = Product{ID: id, Attributes: attrs}
	return nil
}

// Stock is the available quantity of a product as reported by the catalog.
type Stock struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

// LineItem is one product entry in the cart. Its JSON form is the product
// document with the selected amount added.
type LineItem struct {
	ID         int
	Amount     int
	Attributes Attributes
}

// NewLineItem builds a line item from catalog metadata.
func NewLineItem(p Product, amount int) LineItem {
	return LineItem{ID: p.ID, Amount: amount, Attributes: p.Attributes.clone()}
}

// Title returns the item's display name.
func (i LineItem) Title() string { return i.Attributes.Title() }

// Price returns the item's unit price.
func (i LineItem) Price() float64 { return i.Attributes.Price() }

// Document returns the item's JSON object fields, amount included.
func (i LineItem) Document() map[string]json.RawMessage {
	doc := i.Attributes.clone()
	doc["id"] = mustRaw(i.ID)
	doc["amount"] = mustRaw(i.Amount)
	return doc
}

// MarshalJSON writes the product document plus amount.
func (i LineItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Document())
}

// UnmarshalJSON reads a saved line item, keeping unknown fields.
func (i *LineItem) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	attrs, typed, err := splitDocument(data, "id", "amount")
	if err != nil {
		return err
	}
	var item LineItem
	if err := decodeInt(typed, "id", &item.ID); err != nil {
		return err
	}
	if err := decodeInt(typed, "amount", &item.Amount); err != nil {
		return err
	}
	item.Attributes = attrs
	*i = item
	return nil
}

// Cart is the ordered selection of line items. Items are unique by ID.
type Cart struct {
	Items []LineItem `json:"items"`
}

// FindIndex returns the index of the item with the given product ID, or -1.
func (c Cart) FindIndex(productID int) int {
	for i := range c.Items {
		if c.Items[i].ID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no mutable state with c.
func (c Cart) Clone() Cart {
	items := make([]LineItem, len(c.Items))
	for i, item := range c.Items {
		item.Attributes = item.Attributes.clone()
		items[i] = item
	}
	return Cart{Items: items}
}

// Normalize drops items with a non-positive id or amount and merges duplicate
// product IDs into the first occurrence, keeping the larger amount. It
// reports how many rows were dropped.
func (c Cart) Normalize() (Cart, int) {
	items := make([]LineItem, 0, len(c.Items))
	seen := make(map[int]int, len(c.Items))
	for _, item := range c.Items {
		if item.ID <= 0 || item.Amount <= 0 {
			continue
		}
		if idx, ok := seen[item.ID]; ok {
			if item.Amount > items[idx].Amount {
				items[idx].Amount = item.Amount
			}
			continue
		}
		seen[item.ID] = len(items)
		items = append(items, item)
	}
	return Cart{Items: items}, len(c.Items) - len(items)
}

// ItemCount returns the number of distinct products in the cart.
func (c Cart) ItemCount() int {
	return len(c.Items)
}

// Quantity returns the sum of all item amounts.
func (c Cart) Quantity() int {
	var n int
	for _, item := range c.Items {
		n += item.Amount
	}
	return n
}

// Subtotal returns the sum of price * amount over all items.
func (c Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price() * float64(item.Amount)
	}
	return total
}

// HasDuplicates reports whether two items share a product ID.
func (c Cart) HasDuplicates() bool {
	seen := make(map[int]struct{}, len(c.Items))
	for _, item := range c.Items {
		if _, ok := seen[item.ID]; ok {
			return true
		}
		seen[item.ID] = struct{}{}
	}
	return false
}
