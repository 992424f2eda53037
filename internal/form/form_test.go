package form

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/catalogdash/internal/models"
)

func Test_Validate(t *testing.T) {
	testCases := []struct {
		name           string
		draft          Draft
		expectedValid  bool
		expectedErrors Errors
	}{
		{
			name: "Error - every rule broken",
			draft: Draft{
				Title:              "",
				Price:              "-5",
				Stock:              "abc",
				Category:           "",
				DiscountPercentage: "150",
			},
			expectedErrors: Errors{
				FieldTitle:              "Title is required",
				FieldPrice:              "Valid price is required",
				FieldStock:              "Valid stock quantity is required",
				FieldCategory:           "Category is required",
				FieldDiscountPercentage: "Discount must be between 0 and 100",
			},
		},
		{
			name:           "Success - minimal valid product, empty discount",
			draft:          Draft{Title: "Pen", Price: "1.50", Stock: "10", Category: "Office"},
			expectedValid:  true,
			expectedErrors: Errors{},
		},
		{
			name:  "Error - whitespace only title and category",
			draft: Draft{Title: "   ", Price: "2", Stock: "0", Category: "\t"},
			expectedErrors: Errors{
				FieldTitle:    "Title is required",
				FieldCategory: "Category is required",
			},
		},
		{
			name:           "Error - zero price",
			draft:          Draft{Title: "Pen", Price: "0", Stock: "1", Category: "Office"},
			expectedErrors: Errors{FieldPrice: "Valid price is required"},
		},
		{
			name:           "Error - missing price and stock",
			draft:          Draft{Title: "Pen", Category: "Office"},
			expectedErrors: Errors{FieldPrice: "Valid price is required", FieldStock: "Valid stock quantity is required"},
		},
		{
			name:           "Error - negative stock",
			draft:          Draft{Title: "Pen", Price: "1", Stock: "-1", Category: "Office"},
			expectedErrors: Errors{FieldStock: "Valid stock quantity is required"},
		},
		{
			name:           "Error - fractional stock",
			draft:          Draft{Title: "Pen", Price: "1", Stock: "1.5", Category: "Office"},
			expectedErrors: Errors{FieldStock: "Valid stock quantity is required"},
		},
		{
			name:           "Error - non numeric discount",
			draft:          Draft{Title: "Pen", Price: "1", Stock: "1", Category: "Office", DiscountPercentage: "ten"},
			expectedErrors: Errors{FieldDiscountPercentage: "Discount must be between 0 and 100"},
		},
		{
			name:           "Error - negative discount",
			draft:          Draft{Title: "Pen", Price: "1", Stock: "1", Category: "Office", DiscountPercentage: "-0.5"},
			expectedErrors: Errors{FieldDiscountPercentage: "Discount must be between 0 and 100"},
		},
		{
			name:           "Error - price with huge exponent",
			draft:          Draft{Title: "Pen", Price: "1e999999999", Stock: "1", Category: "Office"},
			expectedErrors: Errors{FieldPrice: "Valid price is required"},
		},
		{
			name:           "Error - price with huge negative exponent",
			draft:          Draft{Title: "Pen", Price: "1e-999999999", Stock: "1", Category: "Office"},
			expectedErrors: Errors{FieldPrice: "Valid price is required"},
		},
		{
			name:           "Error - price with too many digits",
			draft:          Draft{Title: "Pen", Price: "123456789012345678901234", Stock: "1", Category: "Office"},
			expectedErrors: Errors{FieldPrice: "Valid price is required"},
		},
		{
			name:           "Error - overlong price text",
			draft:          Draft{Title: "Pen", Price: "1." + strings.Repeat("0", 40), Stock: "1", Category: "Office"},
			expectedErrors: Errors{FieldPrice: "Valid price is required"},
		},
		{
			name:           "Error - discount with huge exponent",
			draft:          Draft{Title: "Pen", Price: "1", Stock: "1", Category: "Office", DiscountPercentage: "1e999999999"},
			expectedErrors: Errors{FieldDiscountPercentage: "Discount must be between 0 and 100"},
		},
		{
			name:           "Error - discount with huge negative exponent",
			draft:          Draft{Title: "Pen", Price: "1", Stock: "1", Category: "Office", DiscountPercentage: "1e-999999999"},
			expectedErrors: Errors{FieldDiscountPercentage: "Discount must be between 0 and 100"},
		},
		{
			name:           "Success - scientific notation within bounds",
			draft:          Draft{Title: "Pen", Price: "1.5e2", Stock: "1", Category: "Office", DiscountPercentage: "2.5e1"},
			expectedValid:  true,
			expectedErrors: Errors{},
		},
		{
			name:           "Success - discount bounds are inclusive",
			draft:          Draft{Title: "Pen", Price: "1", Stock: "1", Category: "Office", DiscountPercentage: "100"},
			expectedValid:  true,
			expectedErrors: Errors{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			result := Validate(tc.draft)

			// then
			assert.Equal(t, tc.expectedValid, result.Valid)
			assert.Equal(t, tc.expectedErrors, result.Errors)
		})
	}
}

func Test_Form_Submit(t *testing.T) {
	// given
	f := New()
	require.NoError(t, f.Set(FieldTitle, "Pen"))
	require.NoError(t, f.Set(FieldPrice, "1.50"))
	require.NoError(t, f.Set(FieldStock, "10"))
	require.NoError(t, f.Set(FieldCategory, "Office"))
	require.NoError(t, f.Set(FieldDiscountPercentage, ""))

	// when
	input, ok := f.Submit()

	// then
	require.True(t, ok)
	assert.Empty(t, f.Errors)
	assert.Equal(t, "Pen", input.Title)
	assert.True(t, decimal.RequireFromString("1.5").Equal(input.Price))
	assert.True(t, input.DiscountPercentage.IsZero(), "empty discount defaults to 0")
	assert.Equal(t, 10, input.Stock)
	assert.Equal(t, "Office", input.Category)
}

func Test_Form_SubmitInvalidKeepsDraft(t *testing.T) {
	// given
	f := New()
	require.NoError(t, f.Set(FieldPrice, "abc"))

	// when
	_, ok := f.Submit()

	// then
	assert.False(t, ok)
	assert.Equal(t, "abc", f.Draft.Price)
	assert.Contains(t, f.Errors, FieldTitle)
	assert.Contains(t, f.Errors, FieldPrice)
}

func Test_Form_SetClearsOnlyThatFieldError(t *testing.T) {
	// given
	f := New()
	_, ok := f.Submit()
	require.False(t, ok)
	require.Contains(t, f.Errors, FieldTitle)
	require.Contains(t, f.Errors, FieldPrice)

	// when
	require.NoError(t, f.Set(FieldTitle, "x"))

	// then
	assert.NotContains(t, f.Errors, FieldTitle)
	assert.Contains(t, f.Errors, FieldPrice, "other errors wait for the next submission")
}

func Test_Form_SetInvalidInputDoesNotValidate(t *testing.T) {
	f := New()
	require.NoError(t, f.Set(FieldPrice, "-1"))
	assert.Empty(t, f.Errors)
}

func Test_Form_SetUnknownField(t *testing.T) {
	f := New()
	assert.Error(t, f.Set("sku", "A-1"))
}

func Test_NewDraft(t *testing.T) {
	d := NewDraft()
	assert.Equal(t, Draft{DiscountPercentage: "0"}, d)
}

func Test_DraftFromProduct(t *testing.T) {
	// given
	p := models.Product{
		ID:                 "3",
		Title:              "Powder Canister",
		Description:        "Fine setting powder",
		Price:              decimal.RequireFromString("14.99"),
		DiscountPercentage: decimal.RequireFromString("18.14"),
		Stock:              59,
		Category:           "beauty",
		Brand:              "Velvet Touch",
	}

	// when
	d := DraftFromProduct(p)

	// then
	assert.Equal(t, Draft{
		Title:              "Powder Canister",
		Description:        "Fine setting powder",
		Price:              "14.99",
		DiscountPercentage: "18.14",
		Stock:              "59",
		Category:           "beauty",
		Brand:              "Velvet Touch",
	}, d)
	assert.Equal(t, "59", d.Value(FieldStock))
}

func Test_Form_Clone(t *testing.T) {
	f := New()
	f.Errors[FieldTitle] = "Title is required"
	c := f.Clone()
	c.Errors[FieldPrice] = "changed"
	assert.NotContains(t, f.Errors, FieldPrice)
}
