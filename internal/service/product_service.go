package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/catalogdash/internal/apperrors"
	"github.com/yourorg/catalogdash/internal/id"
	"github.com/yourorg/catalogdash/internal/models"
)

const (
	DefaultSaveDelay   = 500 * time.Millisecond
	DefaultDeleteDelay = 300 * time.Millisecond

	deleteConfirmation = "Are you sure you want to delete this product?"
)

type CatalogReader interface {
	FetchPage(ctx context.Context, page, pageSize int, search string) (*models.PageResult, error)
}

// Prompter shows blocking prompts to whoever triggered an operation.
type Prompter interface {
	Confirm(ctx context.Context, message string) (bool, error)
	Alert(ctx context.Context, message string) error
}

// Reloader resets all client state and reloads it from the catalog.
type Reloader interface {
	Reload()
}

type ReloadFunc func()

func (f ReloadFunc) Reload() { f() }

type Delays struct {
	Save   time.Duration
	Delete time.Duration
}

type ProductService struct {
	catalog CatalogReader
	delays  Delays
}

func NewProductService(catalog CatalogReader, delays Delays) *ProductService {
	if delays.Save == 0 {
		delays.Save = DefaultSaveDelay
	}
	if delays.Delete == 0 {
		delays.Delete = DefaultDeleteDelay
	}
	return &ProductService{catalog: catalog, delays: delays}
}

func (s *ProductService) ListProducts(ctx context.Context, filter models.ListProductsFilter) (*models.PageResult, error) {
	return s.FetchPage(ctx, filter.Page, filter.PageSize, filter.Search)
}

func (s *ProductService) FetchPage(ctx context.Context, page, pageSize int, search string) (*models.PageResult, error) {
	return s.catalog.FetchPage(ctx, page, pageSize, search)
}

// Mutations returns a mutation client whose prompts and reloads go to one user.
func (s *ProductService) Mutations(prompter Prompter, reloader Reloader) *MutationClient {
	return &MutationClient{delays: s.delays, prompter: prompter, reloader: reloader}
}

// MutationClient simulates the catalog's write endpoints. There is no backing
// store: every confirmed operation succeeds after a fixed delay and forces a
// full reload.
type MutationClient struct {
	delays   Delays
	prompter Prompter
	reloader Reloader
}

func (c *MutationClient) Create(ctx context.Context, input models.ProductInput) (*models.MutationResult, error) {
	if err := wait(ctx, c.delays.Save, "create product"); err != nil {
		return nil, err
	}
	product := productFromInput(models.ProductID(id.GenerateIDWithPrefix(id.ProductPrefix)), input)
	c.succeed(ctx, fmt.Sprintf("Product %q has been added successfully!", input.Title))
	return &models.MutationResult{Success: true, Message: "Product added successfully", Product: &product}, nil
}

func (c *MutationClient) Update(ctx context.Context, productID models.ProductID, input models.ProductInput) (*models.MutationResult, error) {
	if productID == "" {
		return nil, apperrors.NewValidationError("id", "product id is required")
	}
	if err := wait(ctx, c.delays.Save, "update product"); err != nil {
		return nil, err
	}
	product := productFromInput(productID, input)
	c.succeed(ctx, fmt.Sprintf("Product %q has been updated successfully!", input.Title))
	return &models.MutationResult{Success: true, Message: "Product updated successfully", Product: &product}, nil
}

// Remove asks for confirmation first. Declining yields a CancelledError.
func (c *MutationClient) Remove(ctx context.Context, productID models.ProductID) (*models.MutationResult, error) {
	if productID == "" {
		return nil, apperrors.NewValidationError("id", "product id is required")
	}
	confirmed, err := c.prompter.Confirm(ctx, deleteConfirmation)
	if err != nil {
		return nil, fmt.Errorf("confirm delete: %w", err)
	}
	if !confirmed {
		return nil, apperrors.NewCancelledError("delete")
	}
	if err := wait(ctx, c.delays.Delete, "delete product"); err != nil {
		return nil, err
	}
	c.succeed(ctx, "Product has been deleted successfully!")
	return &models.MutationResult{Success: true, Message: "Product deleted successfully"}, nil
}

func (c *MutationClient) succeed(ctx context.Context, message string) {
	if err := c.prompter.Alert(ctx, message); err != nil {
		slog.DebugContext(ctx, "success alert not delivered", "error", err)
	}
	c.reloader.Reload()
}

func wait(ctx context.Context, d time.Duration, operation string) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apperrors.NewTimeoutError(operation)
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func productFromInput(productID models.ProductID, input models.ProductInput) models.Product {
	return models.Product{
		ID:                 productID,
		Title:              input.Title,
		Description:        input.Description,
		Price:              input.Price,
		DiscountPercentage: input.DiscountPercentage,
		Stock:              input.Stock,
		Category:           input.Category,
		Brand:              input.Brand,
	}
}
