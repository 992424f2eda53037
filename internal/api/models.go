package api

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// NumericText holds a numeric field as the caller wrote it. It accepts a JSON
// number or string so malformed values reach field validation instead of
// failing the whole decode.
type NumericText string

func (n *NumericText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = NumericText(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected a number or string: %w", err)
	}
	*n = NumericText(num.String())
	return nil
}

// ProductRequest represents the request body for creating or updating a product.
// Numbers may be sent as JSON numbers or numeric strings.
// @Description Request payload for creating or updating a product
type ProductRequest struct {
	Title              string      `json:"title" example:"Pen"`
	Description        string      `json:"description" example:"Blue ink ballpoint"`
	Price              NumericText `json:"price" swaggertype:"number" example:"1.50"`
	DiscountPercentage NumericText `json:"discountPercentage" swaggertype:"number" example:"0"`
	Stock              NumericText `json:"stock" swaggertype:"integer" example:"10"`
	Category           string      `json:"category" example:"Office"`
	Brand              string      `json:"brand" example:"Bic"`
}

// ProductResponse represents a product resource in API responses.
// @Description Product resource
type ProductResponse struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price" swaggertype:"number"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage" swaggertype:"number"`
	Stock              int             `json:"stock"`
	Category           string          `json:"category"`
	Brand              string          `json:"brand,omitempty"`
}

// MutationResponse reports the outcome of a simulated write.
// @Description Result of a create, update or delete
type MutationResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Product *ProductResponse `json:"product,omitempty"`
}

// ListProductsQuery holds the validated query string of the list endpoint.
type ListProductsQuery struct {
	Page  int    `query:"page" validate:"gte=1"`
	Limit int    `query:"limit" validate:"gte=1,lte=100"`
	Query string `query:"q" validate:"max=200"`
}
