package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// The catalog speaks plain JSON numbers for prices.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductID is the opaque identifier assigned by the remote catalog. The catalog
// serves numeric ids while simulated creates hand out KSUIDs, so both JSON forms
// are accepted.
type ProductID string

func (id *ProductID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

type Product struct {
	ID                 ProductID       `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Stock              int             `json:"stock"`
	Category           string          `json:"category"`
	Brand              string          `json:"brand,omitempty"`
}

// DiscountedPrice is the price after applying DiscountPercentage, rounded to cents.
func (p Product) DiscountedPrice() decimal.Decimal {
	factor := decimal.NewFromInt(100).Sub(p.DiscountPercentage).Div(decimal.NewFromInt(100))
	return p.Price.Mul(factor).Round(2)
}

// ProductInput carries the typed fields of a submitted product form.
type ProductInput struct {
	Title              string
	Description        string
	Price              decimal.Decimal
	DiscountPercentage decimal.Decimal
	Stock              int
	Category           string
	Brand              string
}

// PageResult is one page of products plus pagination metadata. It is replaced
// wholesale on every successful fetch.
type PageResult struct {
	Products    []Product
	Total       int
	TotalPages  int
	CurrentPage int
}

type ListProductsFilter struct {
	Page     int
	PageSize int
	Search   string
}

// MutationResult is what the simulated mutation endpoints report back.
type MutationResult struct {
	Success bool
	Message string
	Product *Product
}
