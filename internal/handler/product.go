package handler

import (
	"errors"
	"net/http"

	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/service"
)

// ProductHandler serves the read-only product catalog.
type ProductHandler struct {
	catalog *service.CatalogService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(catalog *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// HandleSearch handles GET /products?search=&manufacturer=&page=&limit= requests.
func (h *ProductHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.catalog.Search(r.Context(), model.ProductQuery{
		Search:       q.Get("search"),
		Manufacturer: q.Get("manufacturer"),
		Page:         queryInt(r, "page"),
		Limit:        queryInt(r, "limit"),
	})
	if err != nil {
		internalError(w, "search products", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /products/{id} requests.
func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.catalog.Product(r.Context(), productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		internalError(w, "get product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
