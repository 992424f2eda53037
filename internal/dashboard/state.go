package dashboard

import (
	"github.com/yourorg/catalogdash/internal/form"
	"github.com/yourorg/catalogdash/internal/models"
)

// Phase is what the product list shows. Several flags can be set at once; Phase
// resolves them in a fixed precedence: error, loading, empty, populated.
type Phase int

const (
	PhasePopulated Phase = iota
	PhaseError
	PhaseLoading
	PhaseEmpty
)

func (p Phase) String() string {
	switch p {
	case PhaseError:
		return "error"
	case PhaseLoading:
		return "loading"
	case PhaseEmpty:
		return "empty"
	default:
		return "populated"
	}
}

// Dialog is the add/edit dialog. A nil Target means a new product.
type Dialog struct {
	Open   bool
	Target *models.Product
	Form   *form.Form
}

func (d Dialog) Editing() bool {
	return d.Target != nil
}

type State struct {
	SearchText      string
	CommittedSearch string
	CurrentPage     int
	// Page is the last successful result; it survives a later failed fetch.
	Page           *models.PageResult
	Loading        bool
	Err            error
	Dialog         Dialog
	ActionInFlight bool
	// Version increases on every transition.
	Version uint64
}

func (s State) Phase() Phase {
	switch {
	case s.Err != nil:
		return PhaseError
	case s.Loading:
		return PhaseLoading
	case len(s.Products()) == 0:
		return PhaseEmpty
	default:
		return PhasePopulated
	}
}

func (s State) Products() []models.Product {
	if s.Page == nil {
		return nil
	}
	return s.Page.Products
}

// TotalPages is never below 1 so pagination has a sane upper bound before the
// first result arrives.
func (s State) TotalPages() int {
	if s.Page == nil || s.Page.TotalPages < 1 {
		return 1
	}
	return s.Page.TotalPages
}

func (s State) Total() int {
	if s.Page == nil {
		return 0
	}
	return s.Page.Total
}

func (s State) product(id models.ProductID) (models.Product, bool) {
	for _, p := range s.Products() {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// clone copies everything a reader could mutate. Page results are never
// modified after they are stored, so the pointer is shared.
func (s State) clone() State {
	c := s
	if s.Dialog.Target != nil {
		target := *s.Dialog.Target
		c.Dialog.Target = &target
	}
	c.Dialog.Form = s.Dialog.Form.Clone()
	return c
}
