package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/zeltlager/lagerkasse/internal/imaging"
	"github.com/zeltlager/lagerkasse/internal/model"
	"github.com/zeltlager/lagerkasse/internal/store"
)

// ProductsHandler handles product CRUD endpoints.
type ProductsHandler struct {
	DB *sql.DB
}

type productRequest struct {
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Stock   int             `json:"stock"`
	Icon    string          `json:"icon"`
	Barcode string          `json:"barcode"`
}

// List handles GET /api/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	if barcode := r.URL.Query().Get("barcode"); barcode != "" {
		product, err := store.GetProductByBarcode(r.Context(), h.DB, barcode)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to look up product")
			return
		}
		if product == nil {
			jsonError(w, http.StatusNotFound, "product not found")
			return
		}
		jsonResponse(w, http.StatusOK, []model.Product{*product})
		return
	}

	products, err := store.ListProducts(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list products", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

// Create handles POST /api/products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Price.IsNegative() {
		jsonError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	product, err := store.CreateProduct(r.Context(), h.DB, req.Name, req.Price, req.Stock, req.Icon, req.Barcode)
	if err != nil {
		slog.Error("failed to create product", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	slog.Info("product created", "by", actor(r.Context()), "product", product.Name, "price", product.Price)
	jsonResponse(w, http.StatusCreated, product)
}

// Get handles GET /api/products/{id}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil || product.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}

	jsonResponse(w, http.StatusOK, product)
}

// Update handles PUT /api/products/{id}.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Price.IsNegative() {
		jsonError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	if err := store.UpdateProduct(r.Context(), h.DB, id, req.Name, req.Price, req.Stock, req.Icon, req.Barcode); err != nil {
		slog.Error("failed to update product", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	product, _ := store.GetProduct(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{id}. The delete is soft, past
// transactions keep their product name snapshot either way.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := store.DeleteProduct(r.Context(), h.DB, id); err != nil {
		slog.Error("failed to delete product", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	slog.Info("product deleted", "by", actor(r.Context()), "product_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// UploadImage handles PUT /api/products/{id}/image.
func (h *ProductsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if product == nil || product.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	processed, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetProductImage(r.Context(), h.DB, id, processed.Data, processed.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	slog.Info("product image uploaded", "by", actor(r.Context()), "product", product.Name, "bytes", len(processed.Data))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/products/{id}/image.
func (h *ProductsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	data, mime, err := store.GetProductImage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
