package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nhalm/canonlog"
	"github.com/yourorg/catalogdash/internal/dashboard"
	"github.com/yourorg/catalogdash/internal/form"
	"github.com/yourorg/catalogdash/internal/models"
	"github.com/yourorg/catalogdash/internal/service"
	"github.com/yourorg/catalogdash/internal/view"
)

// ProductService defines only the methods the API layer needs from the product service.
type ProductService interface {
	ListProducts(ctx context.Context, filter models.ListProductsFilter) (*models.PageResult, error)
	FetchPage(ctx context.Context, page, pageSize int, search string) (*models.PageResult, error)
	Mutations(prompter service.Prompter, reloader service.Reloader) *service.MutationClient
}

type HandlerConfig struct {
	PageSize   int
	Debounce   time.Duration
	SessionTTL time.Duration
}

type Handler struct {
	productSvc ProductService
	renderer   *view.Renderer
	sessions   *SessionStore
	pageSize   int
}

func NewHandler(productSvc ProductService, config HandlerConfig) (*Handler, error) {
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}
	if config.PageSize <= 0 {
		config.PageSize = dashboard.DefaultPageSize
	}

	h := &Handler{
		productSvc: productSvc,
		renderer:   renderer,
		pageSize:   config.PageSize,
	}
	h.sessions = NewSessionStore(config.SessionTTL, func(id string) *session {
		return newSession(id, productSvc, dashboard.Options{
			PageSize: config.PageSize,
			Debounce: config.Debounce,
		})
	})
	return h, nil
}

// Sessions exposes the dashboard sessions so the server can sweep and close them.
func (h *Handler) Sessions() *SessionStore {
	return h.sessions
}

// ListProducts returns one page of the catalog.
//
// @Summary List products
// @Tags products
// @Produce json
// @Param page query int false "Page number, starting at 1"
// @Param limit query int false "Products per page (max 100)"
// @Param q query string false "Search text"
// @Success 200 {object} ListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /products [get]
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := ListProductsQuery{Page: 1, Limit: h.pageSize, Query: r.URL.Query().Get("q")}
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			BadRequest(w, r, err, "page must be an integer", "page")
			return
		}
		query.Page = parsed
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			BadRequest(w, r, err, "limit must be an integer", "limit")
			return
		}
		query.Limit = parsed
	}

	if err := ValidateStruct(query); err != nil {
		handleServiceError(w, r, err)
		return
	}

	canonlog.AddRequestFields(r.Context(), map[string]any{
		"page":   query.Page,
		"limit":  query.Limit,
		"search": query.Query,
	})

	result, err := h.productSvc.ListProducts(r.Context(), models.ListProductsFilter{
		Page:     query.Page,
		PageSize: query.Limit,
		Search:   query.Query,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	responses := make([]ProductResponse, len(result.Products))
	for i, p := range result.Products {
		responses[i] = convertToProductResponse(p)
	}

	List(w, responses, result.CurrentPage, query.Limit, result.Total, result.TotalPages)
}

// CreateProduct simulates adding a product.
//
// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Param product body ProductRequest true "Product"
// @Success 201 {object} MutationResponse
// @Failure 400 {object} ErrorResponse
// @Router /products [post]
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeProductInput(w, r)
	if !ok {
		return
	}

	canonlog.AddRequestFields(r.Context(), map[string]any{
		"product_title": input.Title,
	})

	result, err := h.apiMutations().Create(r.Context(), input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	Created(w, convertToMutationResponse(result))
}

// UpdateProduct simulates editing a product.
//
// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param product body ProductRequest true "Product"
// @Success 200 {object} MutationResponse
// @Failure 400 {object} ErrorResponse
// @Router /products/{id} [patch]
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	input, ok := decodeProductInput(w, r)
	if !ok {
		return
	}

	canonlog.AddRequestFields(r.Context(), map[string]any{
		"product_id":    id,
		"product_title": input.Title,
	})

	result, err := h.apiMutations().Update(r.Context(), models.ProductID(id), input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	Success(w, convertToMutationResponse(result))
}

// DeleteProduct simulates removing a product. The request itself is the
// confirmation.
//
// @Summary Delete product
// @Tags products
// @Param id path string true "Product ID"
// @Success 204
// @Router /products/{id} [delete]
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	canonlog.AddRequestFields(r.Context(), map[string]any{
		"product_id": id,
	})

	if _, err := h.apiMutations().Remove(r.Context(), models.ProductID(id)); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) apiMutations() *service.MutationClient {
	return h.productSvc.Mutations(apiPrompter{}, service.ReloadFunc(func() {}))
}

// apiPrompter stands in for a person on programmatic requests: confirmations
// are implied and notices go to the request log.
type apiPrompter struct{}

func (apiPrompter) Confirm(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func (apiPrompter) Alert(ctx context.Context, message string) error {
	canonlog.AddRequestFields(ctx, map[string]any{"notice": message})
	return nil
}

// decodeProductInput reads a ProductRequest and runs it through the same rules
// as the dashboard form.
func decodeProductInput(w http.ResponseWriter, r *http.Request) (models.ProductInput, bool) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, err, "invalid request body", "")
		return models.ProductInput{}, false
	}

	f := form.New()
	f.Draft = form.Draft{
		Title:              req.Title,
		Description:        req.Description,
		Price:              string(req.Price),
		DiscountPercentage: string(req.DiscountPercentage),
		Stock:              string(req.Stock),
		Category:           req.Category,
		Brand:              req.Brand,
	}
	input, ok := f.Submit()
	if !ok {
		InvalidFields(w, r, errValidationFailed, f.Errors)
		return models.ProductInput{}, false
	}
	return input, true
}

func convertToProductResponse(product models.Product) ProductResponse {
	return ProductResponse{
		ID:                 string(product.ID),
		Title:              product.Title,
		Description:        product.Description,
		Price:              product.Price,
		DiscountPercentage: product.DiscountPercentage,
		Stock:              product.Stock,
		Category:           product.Category,
		Brand:              product.Brand,
	}
}

func convertToMutationResponse(result *models.MutationResult) MutationResponse {
	resp := MutationResponse{Success: result.Success, Message: result.Message}
	if result.Product != nil {
		product := convertToProductResponse(*result.Product)
		resp.Product = &product
	}
	return resp
}
