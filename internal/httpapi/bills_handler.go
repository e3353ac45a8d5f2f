package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ai-rustic/OCR-Bill2Sheet/internal/bill"
	"github.com/ai-rustic/OCR-Bill2Sheet/internal/export"
)

type BillsHandler struct {
	store    bill.Store
	exporter *export.Service
}

func NewBillsHandler(store bill.Store, exporter *export.Service) *BillsHandler {
	return &BillsHandler{store: store, exporter: exporter}
}

// --------------------------------------------------
// List (paginated, ordered by id)
// --------------------------------------------------
func (h *BillsHandler) List(c *gin.Context) {
	page, err := positiveIntQuery(c, "page", 1)
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, errorResponse("page must be an integer >= 1"))
		return
	}

	limit, err := positiveIntQuery(c, "limit", 10)
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, errorResponse("limit must be an integer between 1 and 100"))
		return
	}

	bills, err := h.store.List(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(fmt.Sprintf("Failed to fetch bills: %v", err)))
		return
	}
	if bills == nil {
		bills = []bill.Bill{}
	}

	c.JSON(http.StatusOK, successResponse(bills))
}

// --------------------------------------------------
// Get by id
// --------------------------------------------------
func (h *BillsHandler) Get(c *gin.Context) {
	id, ok := billID(c)
	if !ok {
		return
	}

	b, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, bill.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse(fmt.Sprintf("Bill with ID %d not found", id)))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse(fmt.Sprintf("Failed to fetch bill: %v", err)))
		return
	}

	c.JSON(http.StatusOK, successResponse(b))
}

// --------------------------------------------------
// Create
// --------------------------------------------------
func (h *BillsHandler) Create(c *gin.Context) {
	fields, ok := decodeBillBody(c)
	if !ok {
		return
	}

	b, err := bill.FromCandidate(fields)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	saved, err := h.store.Create(c.Request.Context(), b)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(fmt.Sprintf("Failed to create bill: %v", err)))
		return
	}

	c.JSON(http.StatusCreated, successResponse(saved))
}

// --------------------------------------------------
// Update (partial: only provided fields change)
// --------------------------------------------------
func (h *BillsHandler) Update(c *gin.Context) {
	id, ok := billID(c)
	if !ok {
		return
	}

	fields, ok := decodeBillBody(c)
	if !ok {
		return
	}

	b, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, bill.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse(fmt.Sprintf("Bill with ID %d not found", id)))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse(fmt.Sprintf("Failed to fetch bill: %v", err)))
		return
	}

	if err := bill.ApplyPatch(&b, fields); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	saved, err := h.store.Update(c.Request.Context(), b)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(fmt.Sprintf("Failed to update bill: %v", err)))
		return
	}

	c.JSON(http.StatusOK, successResponse(saved))
}

// --------------------------------------------------
// Delete
// --------------------------------------------------
func (h *BillsHandler) Delete(c *gin.Context) {
	id, ok := billID(c)
	if !ok {
		return
	}

	err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, bill.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse(fmt.Sprintf("Bill with ID %d not found", id)))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse(fmt.Sprintf("Failed to delete bill: %v", err)))
		return
	}

	c.JSON(http.StatusOK, successResponse(fmt.Sprintf("Bill with ID %d deleted successfully", id)))
}

// --------------------------------------------------
// Search (case-insensitive substring on invoice number)
// --------------------------------------------------
func (h *BillsHandler) Search(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		term = c.Query("invoice")
	}
	term = strings.TrimSpace(term)
	if term == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Search query parameter 'q' or 'invoice' is required"))
		return
	}

	bills, err := h.store.Search(c.Request.Context(), term)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(fmt.Sprintf("Failed to search bills: %v", err)))
		return
	}
	if bills == nil {
		bills = []bill.Bill{}
	}

	c.JSON(http.StatusOK, successResponse(bills))
}

// --------------------------------------------------
// Count
// --------------------------------------------------
func (h *BillsHandler) Count(c *gin.Context) {
	count, err := h.store.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(fmt.Sprintf("Failed to get bills count: %v", err)))
		return
	}

	c.JSON(http.StatusOK, successResponse(count))
}

// --------------------------------------------------
// Export (xlsx)
// --------------------------------------------------
func (h *BillsHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "xlsx"))
	if format != "xlsx" {
		c.JSON(http.StatusBadRequest, errorResponse("Only 'xlsx' export format is supported"))
		return
	}

	buf, err := h.exporter.BuildWorkbook(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(fmt.Sprintf("Failed to export bills: %v", err)))
		return
	}

	filename := export.Filename(time.Now().UTC().Format("20060102150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

func billID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bill id must be an integer"))
		return 0, false
	}
	return id, true
}

func positiveIntQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// decodeBillBody decodes a JSON body keeping numbers as json.Number so
// decimal fields never round-trip through a float. Replies 400 itself
// when the body is not a JSON object.
func decodeBillBody(c *gin.Context) (map[string]any, bool) {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("request body must be a JSON object"))
		return nil, false
	}
	return fields, true
}
