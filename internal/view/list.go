// Package view turns dashboard data into render models and HTML.
package view

import (
	"strconv"

	"github.com/yourorg/catalogdash/internal/models"
)

// SkeletonRows is the number of placeholder rows shown while loading.
const SkeletonRows = 5

const (
	ErrorMessage = "Failed to load products. Please try again."
	EmptyMessage = "No products found"
)

// ListState is the single state a list renders in. The checks run in a fixed
// order: error, loading, empty, populated.
type ListState string

const (
	ListError     ListState = "error"
	ListLoading   ListState = "loading"
	ListEmpty     ListState = "empty"
	ListPopulated ListState = "populated"
)

type StockTier string

const (
	StockHigh StockTier = "high"
	StockLow  StockTier = "low"
	StockOut  StockTier = "out"
)

// TierForStock buckets a stock level: more than 10 is high, 1 to 10 is low.
func TierForStock(stock int) StockTier {
	switch {
	case stock > 10:
		return StockHigh
	case stock > 0:
		return StockLow
	default:
		return StockOut
	}
}

type ListInput struct {
	Products    []models.Product
	Loading     bool
	Err         error
	CurrentPage int
	TotalPages  int
	Total       int
}

type Row struct {
	ID              string
	Title           string
	Description     string
	Brand           string
	Price           string
	HasDiscount     bool
	Discount        string
	DiscountedPrice string
	Category        string
	Stock           int
	StockTier       StockTier
}

// Pagination holds the page controls. Prev and Next are the raw neighbouring
// page numbers; the controls are disabled at the ends instead of clamping.
type Pagination struct {
	Show         bool
	CurrentPage  int
	TotalPages   int
	Prev         int
	Next         int
	PrevDisabled bool
	NextDisabled bool
}

type ListView struct {
	State     ListState
	Message   string
	Rows      []Row
	Skeletons []int
	Summary   string
	Pages     Pagination
}

func NewListView(in ListInput) ListView {
	v := ListView{Pages: newPagination(in.CurrentPage, in.TotalPages)}
	switch {
	case in.Err != nil:
		v.State = ListError
		v.Message = ErrorMessage
		v.Pages = Pagination{}
		return v
	case in.Loading:
		v.State = ListLoading
		v.Skeletons = make([]int, SkeletonRows)
	case len(in.Products) == 0:
		v.State = ListEmpty
		v.Message = EmptyMessage
	default:
		v.State = ListPopulated
		v.Rows = make([]Row, 0, len(in.Products))
		for _, p := range in.Products {
			v.Rows = append(v.Rows, newRow(p))
		}
	}
	if in.Total > 0 {
		v.Summary = "Showing " + strconv.Itoa(len(in.Products)) + " of " + strconv.Itoa(in.Total) + " products"
	}
	return v
}

func newRow(p models.Product) Row {
	r := Row{
		ID:          string(p.ID),
		Title:       p.Title,
		Description: p.Description,
		Brand:       p.Brand,
		Price:       "$" + p.Price.StringFixed(2),
		Category:    p.Category,
		Stock:       p.Stock,
		StockTier:   TierForStock(p.Stock),
	}
	if p.DiscountPercentage.IsPositive() {
		r.HasDiscount = true
		r.Discount = "-" + p.DiscountPercentage.String() + "% off"
		r.DiscountedPrice = "$" + p.DiscountedPrice().StringFixed(2)
	}
	return r
}

func newPagination(current, total int) Pagination {
	if total <= 1 {
		return Pagination{}
	}
	return Pagination{
		Show:         true,
		CurrentPage:  current,
		TotalPages:   total,
		Prev:         current - 1,
		Next:         current + 1,
		PrevDisabled: current <= 1,
		NextDisabled: current >= total,
	}
}
