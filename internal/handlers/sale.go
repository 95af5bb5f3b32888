package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-kasir/auth"
	"github.com/diewo77/go-kasir/httpx"
	"github.com/diewo77/go-kasir/internal/metrics"
	"github.com/diewo77/go-kasir/internal/services"
	"gorm.io/gorm"
)

// SaleHandler fronts the checkout flow and the back-office penjualan views.
type SaleHandler struct {
	Svc     *services.CheckoutService
	Metrics *metrics.Metrics
}

func NewSaleHandler(svc *services.CheckoutService, m *metrics.Metrics) *SaleHandler {
	return &SaleHandler{Svc: svc, Metrics: m}
}

type checkoutReq struct {
	CustomerID uint                `json:"customer_id"`
	Lines      []services.SaleLine `json:"lines"`
	Total      int64               `json:"total,omitempty"` // display hint from the till UI
	Payment    int64               `json:"payment"`
}

// Create is the Transaction Recorder endpoint: POST /sales.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req checkoutReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	sale, err := h.Svc.RecordSale(r.Context(), services.CheckoutInput{
		CustomerID:    req.CustomerID,
		CashierID:     uid,
		Lines:         req.Lines,
		ExpectedTotal: req.Total,
		Payment:       req.Payment,
	})
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	h.Metrics.Sales.WithLabelValues(metrics.OutcomeRecorded).Inc()
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"sale":    sale,
		"receipt": services.BuildReceipt(sale),
	})
}

// writeCheckoutError maps the checkout failure taxonomy to HTTP responses.
// Validation failures carry enough detail for the operator to fix the input.
func (h *SaleHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	var oos *services.OutOfStockError
	var ipe *services.InsufficientPaymentError
	switch {
	case errors.Is(err, services.ErrInvalidSale):
		h.Metrics.Sales.WithLabelValues(metrics.OutcomeRejected).Inc()
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, services.ErrCustomerNotFound):
		h.Metrics.Sales.WithLabelValues(metrics.OutcomeRejected).Inc()
		httpx.JSONError(w, http.StatusNotFound, "customer_not_found", nil)
	case errors.Is(err, services.ErrProductNotFound):
		h.Metrics.Sales.WithLabelValues(metrics.OutcomeRejected).Inc()
		httpx.JSONError(w, http.StatusNotFound, "product_not_found", nil)
	case errors.As(err, &oos):
		h.Metrics.Sales.WithLabelValues(metrics.OutcomeRejected).Inc()
		httpx.JSONError(w, http.StatusConflict, "out_of_stock", map[string]any{
			"product":   oos.ProductName,
			"requested": oos.Requested,
			"available": oos.Available,
		})
	case errors.As(err, &ipe):
		h.Metrics.Sales.WithLabelValues(metrics.OutcomeRejected).Inc()
		httpx.JSONError(w, http.StatusBadRequest, "insufficient_payment", map[string]any{
			"total":   ipe.Total,
			"payment": ipe.Payment,
		})
	default:
		h.Metrics.Sales.WithLabelValues(metrics.OutcomeFailed).Inc()
		httpx.JSONError(w, http.StatusInternalServerError, "checkout_failed", nil)
	}
}

// List: GET /sales – back-office listing, newest first.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	sales, total, err := h.Svc.ListSales(r.Context(), limit, offset)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_sales", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": sales, "total": total, "limit": limit, "offset": offset})
}

// Receipt: GET /sales/receipt?id=... – JSON by default, ?format=text for the printer.
func (h *SaleHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id := parseID(r)
	if id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	sale, err := h.Svc.GetSale(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_sale", nil)
		return
	}
	receipt := services.BuildReceipt(sale)
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(receipt.Text()))
		return
	}
	httpx.JSON(w, http.StatusOK, receipt)
}
