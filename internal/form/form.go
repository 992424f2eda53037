// Package form holds the product editor: a text draft of every editable field,
// per-field validation, and conversion of a valid draft into typed input.
package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yourorg/catalogdash/internal/models"
)

const (
	FieldTitle              = "title"
	FieldDescription        = "description"
	FieldPrice              = "price"
	FieldDiscountPercentage = "discountPercentage"
	FieldStock              = "stock"
	FieldCategory           = "category"
	FieldBrand              = "brand"
)

// Fields lists the editable fields in display order.
var Fields = []string{
	FieldTitle,
	FieldDescription,
	FieldPrice,
	FieldStock,
	FieldCategory,
	FieldBrand,
	FieldDiscountPercentage,
}

// Draft is the in-progress copy of a product. Every field is text so partial or
// invalid input survives until submission.
type Draft struct {
	Title              string `form:"title" validate:"notblank"`
	Description        string `form:"description"`
	Price              string `form:"price" validate:"positive_decimal"`
	DiscountPercentage string `form:"discountPercentage" validate:"percentage"`
	Stock              string `form:"stock" validate:"non_negative_int"`
	Category           string `form:"category" validate:"notblank"`
	Brand              string `form:"brand"`
}

// NewDraft returns the empty draft used when creating a product.
func NewDraft() Draft {
	return Draft{DiscountPercentage: "0"}
}

// DraftFromProduct pre-fills a draft with the product's current values.
func DraftFromProduct(p models.Product) Draft {
	return Draft{
		Title:              p.Title,
		Description:        p.Description,
		Price:              p.Price.String(),
		DiscountPercentage: p.DiscountPercentage.String(),
		Stock:              strconv.Itoa(p.Stock),
		Category:           p.Category,
		Brand:              p.Brand,
	}
}

// Value returns the draft text of field.
func (d Draft) Value(field string) string {
	if p := d.field(field); p != nil {
		return *p
	}
	return ""
}

func (d *Draft) field(name string) *string {
	switch name {
	case FieldTitle:
		return &d.Title
	case FieldDescription:
		return &d.Description
	case FieldPrice:
		return &d.Price
	case FieldDiscountPercentage:
		return &d.DiscountPercentage
	case FieldStock:
		return &d.Stock
	case FieldCategory:
		return &d.Category
	case FieldBrand:
		return &d.Brand
	default:
		return nil
	}
}

// Input converts a draft that passed validation into typed values.
func (d Draft) Input() models.ProductInput {
	price, _ := parseDecimal(d.Price)
	discount, ok := parseDecimal(d.DiscountPercentage)
	if !ok {
		discount = decimal.Zero
	}
	stock, _ := strconv.Atoi(strings.TrimSpace(d.Stock))
	return models.ProductInput{
		Title:              d.Title,
		Description:        d.Description,
		Price:              price,
		DiscountPercentage: discount,
		Stock:              stock,
		Category:           d.Category,
		Brand:              d.Brand,
	}
}

// Errors maps a field name to its validation message.
type Errors map[string]string

// Form pairs a draft with the errors found at the last submission.
type Form struct {
	Draft  Draft
	Errors Errors
}

func New() *Form {
	return &Form{Draft: NewDraft(), Errors: Errors{}}
}

func Edit(p models.Product) *Form {
	return &Form{Draft: DraftFromProduct(p), Errors: Errors{}}
}

// Set stores a field edit and clears that field's error. Nothing is validated
// until the next Submit.
func (f *Form) Set(field, value string) error {
	p := f.Draft.field(field)
	if p == nil {
		return fmt.Errorf("unknown form field %q", field)
	}
	*p = value
	delete(f.Errors, field)
	return nil
}

// Submit validates the draft, records the errors and returns the typed input
// when the draft is valid.
func (f *Form) Submit() (models.ProductInput, bool) {
	result := Validate(f.Draft)
	f.Errors = result.Errors
	if !result.Valid {
		return models.ProductInput{}, false
	}
	return f.Draft.Input(), true
}

// Clone returns a deep copy safe to hand to renderers.
func (f *Form) Clone() *Form {
	if f == nil {
		return nil
	}
	errs := make(Errors, len(f.Errors))
	for k, v := range f.Errors {
		errs[k] = v
	}
	return &Form{Draft: f.Draft, Errors: errs}
}
