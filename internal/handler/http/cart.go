package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketshoes/cartstore/internal/cartstore"
	"github.com/rocketshoes/cartstore/internal/domain"
	"github.com/rocketshoes/cartstore/internal/notify"
	"github.com/rocketshoes/cartstore/internal/session"
	"github.com/rocketshoes/cartstore/pkg/httputil"
	"github.com/rocketshoes/cartstore/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	sessions *session.Registry
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(sessions *session.Registry, notifier notify.Notifier, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		notifier: notifier,
		logger:   logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding one unit of a product.
type AddItemRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
}

// UpdateAmountRequest is the JSON request body for setting an item's amount.
// Non-positive amounts are accepted and leave the cart unchanged.
type UpdateAmountRequest struct {
	Amount *int `json:"amount" validate:"required"`
}

// --- Response DTOs ---

// ItemView is a line item with its computed subtotal. It is written as the
// saved item document with a "subtotal" field added.
type ItemView struct {
	domain.LineItem
	Subtotal float64
}

// MarshalJSON writes the item document plus subtotal.
func (v ItemView) MarshalJSON() ([]byte, error) {
	doc := v.Document()
	subtotal, err := json.Marshal(v.Subtotal)
	if err != nil {
		return nil, err
	}
	doc["subtotal"] = subtotal
	return json.Marshal(doc)
}

// UnmarshalJSON reads an item view written by MarshalJSON.
func (v *ItemView) UnmarshalJSON(data []byte) error {
	var item domain.LineItem
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	subtotal := item.Attributes.Number("subtotal")
	delete(item.Attributes, "subtotal")
	*v = ItemView{LineItem: item, Subtotal: subtotal}
	return nil
}

// CartView is the cart as returned to clients.
type CartView struct {
	Items     []ItemView `json:"items"`
	ItemCount int        `json:"item_count"`
	Quantity  int        `json:"quantity"`
	Subtotal  float64    `json:"subtotal"`
}

func newCartView(c domain.Cart) CartView {
	items := make([]ItemView, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, ItemView{LineItem: item, Subtotal: item.Price() * float64(item.Amount)})
	}
	return CartView{
		Items:     items,
		ItemCount: c.ItemCount(),
		Quantity:  c.Quantity(),
		Subtotal:  c.Subtotal(),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartView(store.Cart())})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	actions := cartstore.NewActions(store, h.notifier)
	if n := actions.AddProduct(r.Context(), req.ProductID); n != nil {
		h.writeNotification(w, r, n)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartView(store.Cart())})
}

// UpdateItemAmount handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItemAmount(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParsePositiveInt(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	var req UpdateAmountRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	actions := cartstore.NewActions(store, h.notifier)
	update := cartstore.UpdateProductAmount{ProductID: productID, Amount: *req.Amount}
	if n := actions.UpdateProductAmount(r.Context(), update); n != nil {
		h.writeNotification(w, r, n)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartView(store.Cart())})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParsePositiveInt(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	actions := cartstore.NewActions(store, h.notifier)
	if n := actions.RemoveProduct(r.Context(), productID); n != nil {
		h.writeNotification(w, r, n)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartView(store.Cart())})
}

// --- Helpers ---

// store resolves the session's cart store, writing an error response when it
// cannot.
func (h *CartHandler) store(w http.ResponseWriter, r *http.Request) (*cartstore.Store, bool) {
	sid, ok := sessionIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "MISSING_SESSION", Message: "session is required"},
		})
		return nil, false
	}

	store, err := h.sessions.Get(r.Context(), sid)
	if err != nil {
		if errors.Is(err, session.ErrInvalidID) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_SESSION", Message: err.Error()},
			})
			return nil, false
		}
		httputil.WriteError(w, r, err, h.logger)
		return nil, false
	}
	return store, true
}

// writeNotification writes the error envelope for a rejected cart action.
// The message is the user-facing notification text.
func (h *CartHandler) writeNotification(w http.ResponseWriter, r *http.Request, n *notify.Notification) {
	status, body := httputil.ErrorFor(r, n.Err, h.logger)
	body.Message = n.Message
	body.Notification = string(n.Kind)
	httputil.WriteJSON(w, status, httputil.Response{Error: body})
}
