package models

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// Field is a JSON field that remembers whether it was sent at all.
// Absent leaves Set false; an explicit null sets Set and Null.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Nil returns a field that was sent as null.
func Nil[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// Present reports whether the field carries a non-null value.
func (f Field[T]) Present() bool {
	return f.Set && !f.Null
}

// ProductInput is the body of create and update requests.
// id and the timestamps are not part of it and are ignored when sent.
type ProductInput struct {
	Name        Field[string]          `json:"name"`
	SKU         Field[string]          `json:"sku"`
	Brand       Field[string]          `json:"brand"`
	Price       Field[decimal.Decimal] `json:"price"`
	Description Field[string]          `json:"description"`
	ImageURL    Field[string]          `json:"imageUrl"`
	Category    Field[string]          `json:"category"`
	IsActive    Field[bool]            `json:"isActive"`
}

// NewProduct builds an unsaved product from a create payload.
// isActive defaults to true.
func (in ProductInput) NewProduct() Product {
	p := Product{IsActive: true}
	in.ApplyTo(&p)
	return p
}

// ApplyTo copies every field that was sent onto p and leaves the rest alone.
// A null optional field is cleared; a null isActive goes back to true.
func (in ProductInput) ApplyTo(p *Product) {
	if in.Name.Present() {
		p.Name = in.Name.Value
	}
	if in.SKU.Present() {
		p.SKU = in.SKU.Value
	}
	if in.Brand.Present() {
		p.Brand = in.Brand.Value
	}
	if in.Price.Set {
		if in.Price.Null {
			p.Price = Price{}
		} else {
			p.Price = NewPrice(in.Price.Value)
		}
	}
	applyNullString(&p.Description, in.Description)
	applyNullString(&p.ImageURL, in.ImageURL)
	applyNullString(&p.Category, in.Category)
	if in.IsActive.Set {
		p.IsActive = in.IsActive.Null || in.IsActive.Value
	}
}

func applyNullString(dst *null.String, f Field[string]) {
	if !f.Set {
		return
	}
	if f.Null {
		*dst = null.String{}
		return
	}
	*dst = null.StringFrom(f.Value)
}
