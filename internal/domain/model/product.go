package model

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const maxProductNameLen = 255

// Product represents a catalog product record.
type Product struct {
	Code        string  `json:"code"        db:"code"`
	Name        string  `json:"name"        db:"name"`
	Price       float64 `json:"price"       db:"price"`
	Image       string  `json:"image"       db:"image"`
	Description string  `json:"description" db:"description"`
	Category    string  `json:"category"    db:"category"`
	Rating      float64 `json:"rating"      db:"rating"`
	Reviews     int     `json:"reviews"     db:"reviews"`
}

// Validate checks required product fields and invariants.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return errors.New("code is required and cannot be empty")
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxProductNameLen {
		return errors.New("name cannot exceed 255 characters")
	}
	if p.Price < 0 {
		return errors.New("price cannot be negative")
	}
	if p.Rating < 0 || p.Rating > 5 {
		return errors.New("rating must be between 0 and 5")
	}
	if p.Reviews < 0 {
		return errors.New("reviews cannot be negative")
	}
	return nil
}

// UpdateProductRequest represents parameters to update a Product.
type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Reviews     *int     `json:"reviews,omitempty"`
}

// HasUpdates reports whether any field is set in UpdateProductRequest.
func (r *UpdateProductRequest) HasUpdates() bool {
	return r.Name != nil || r.Price != nil || r.Image != nil || r.Description != nil ||
		r.Category != nil || r.Rating != nil || r.Reviews != nil
}

// Validate validates UpdateProductRequest.
func (r *UpdateProductRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name cannot be empty")
	}
	if r.Price != nil && *r.Price < 0 {
		return errors.New("price cannot be negative")
	}
	if r.Rating != nil && (*r.Rating < 0 || *r.Rating > 5) {
		return errors.New("rating must be between 0 and 5")
	}
	if r.Reviews != nil && *r.Reviews < 0 {
		return errors.New("reviews cannot be negative")
	}
	return nil
}

// ProductsListOptions controls paging and filtering for listing products.
// Notes:
// - Q matches name via ILIKE substring.
// - Category matches exactly.
type ProductsListOptions struct {
	Limit    int
	Offset   int
	Q        *string
	Category *string
}
