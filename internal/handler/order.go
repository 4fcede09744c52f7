package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/noortjevm/forno/internal/domain/customer"
	"github.com/noortjevm/forno/internal/domain/delivery"
	"github.com/noortjevm/forno/internal/domain/discount"
	"github.com/noortjevm/forno/internal/domain/order"
)

type orderItemRequest struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
}

type orderRequest struct {
	CustomerID      string             `json:"customerId"`
	Items           []orderItemRequest `json:"items"`
	DiscountCode    string             `json:"discountCode"`
	DeliveryAddress string             `json:"deliveryAddress"`
	PostalCode      string             `json:"postalCode"`
}

// basketLines converts request items to domain lines, dropping zero-quantity
// entries. Unpicked menu rows arrive as quantity 0 and are not an error;
// negative quantities are.
func (r orderRequest) basketLines() []order.BasketLine {
	lines := make([]order.BasketLine, 0, len(r.Items))
	for _, it := range r.Items {
		if it.Quantity == 0 {
			continue
		}
		lines = append(lines, order.BasketLine{MenuItemID: it.MenuItemID, Quantity: it.Quantity})
	}
	return lines
}

// PreviewOrder handles POST /api/orders/preview. It quotes the basket
// without committing anything.
func (h *Handler) PreviewOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	res, err := h.orders.Preview(r.Context(), order.PreviewRequest{
		CustomerID: req.CustomerID,
		Lines:      req.basketLines(),
		PromoCode:  req.DiscountCode,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("rawSubtotal", func(e *jx.Encoder) { e.Str(res.RawSubtotal.StringFixed(2)) })
			e.Field("finalTotal", func(e *jx.Encoder) { e.Str(res.Total.StringFixed(2)) })
			e.Field("messages", func(e *jx.Encoder) { encodeMessages(e, res.Messages) })
			if res.Estimate != nil {
				e.Field("estimatedPickupAt", func(e *jx.Encoder) { encodeTime(e, res.Estimate.PickupAt) })
				e.Field("estimatedDeliveryAt", func(e *jx.Encoder) { encodeTime(e, res.Estimate.DeliveryAt) })
			}
		})
	})
}

// CreateOrder handles POST /api/orders. It commits the order and returns the
// delivery window.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	res, err := h.orders.Create(r.Context(), order.CreateRequest{
		CustomerID:      req.CustomerID,
		Lines:           req.basketLines(),
		DeliveryAddress: req.DeliveryAddress,
		PostalCode:      req.PostalCode,
		PromoCode:       req.DiscountCode,
	})
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("orderId", func(e *jx.Encoder) { e.Str(res.Order.ID) })
			e.Field("agentId", func(e *jx.Encoder) { e.Str(res.Schedule.AgentID) })
			e.Field("pickupAt", func(e *jx.Encoder) { encodeTime(e, res.Schedule.PickupAt) })
			e.Field("deliveryAt", func(e *jx.Encoder) { encodeTime(e, res.Schedule.DeliveryAt) })
			e.Field("total", func(e *jx.Encoder) { e.Str(res.Order.Total.StringFixed(2)) })
			e.Field("messages", func(e *jx.Encoder) { encodeMessages(e, res.Messages) })
		})
	})
}

// ListOrders handles GET /api/orders. Status is derived from the delivery
// window at response time, never stored.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	now := h.now()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, o := range orders {
				e.Obj(func(e *jx.Encoder) {
					e.Field("orderId", func(e *jx.Encoder) { e.Str(o.ID) })
					e.Field("customerId", func(e *jx.Encoder) { e.Str(o.CustomerID) })
					e.Field("agentId", func(e *jx.Encoder) { e.Str(o.AgentID) })
					e.Field("postalCode", func(e *jx.Encoder) { e.Str(o.PostalCode) })
					e.Field("placedAt", func(e *jx.Encoder) { encodeTime(e, o.PlacedAt) })
					e.Field("pickupAt", func(e *jx.Encoder) { encodeTime(e, o.PickupAt) })
					e.Field("expectedDeliveryAt", func(e *jx.Encoder) { encodeTime(e, o.ExpectedDeliveryAt()) })
					e.Field("status", func(e *jx.Encoder) { e.Str(string(o.StatusAt(now))) })
					e.Field("total", func(e *jx.Encoder) { e.Str(o.Total.StringFixed(2)) })
					e.Field("items", func(e *jx.Encoder) {
						e.Arr(func(e *jx.Encoder) {
							for _, it := range o.Items {
								e.Obj(func(e *jx.Encoder) {
									e.Field("menuItemId", func(e *jx.Encoder) { e.Str(it.MenuItemID) })
									e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
								})
							}
						})
					})
				})
			}
		})
	})
}

// writeOrderError maps domain errors to HTTP responses.
func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, customer.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrEmptyBasket), errors.Is(err, order.ErrMissingAddress):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNoPizza):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, discount.ErrCodeAlreadyUsed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, delivery.ErrNoAgentAvailable):
		h.writeNoAgentError(w, r)
	default:
		var iqErr *order.InvalidQuantityError
		var nfErr *order.ItemNotFoundError
		if errors.As(err, &iqErr) || errors.As(err, &nfErr) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeInternalError(w, r, err)
	}
}

// writeNoAgentError includes the served postal code roster so clients can
// tell customers where delivery is possible.
func (h *Handler) writeNoAgentError(w http.ResponseWriter, r *http.Request) {
	codes, err := h.agents.ListServedPostalCodes(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(http.StatusUnprocessableEntity) })
			e.Field("message", func(e *jx.Encoder) { e.Str(delivery.ErrNoAgentAvailable.Error()) })
			e.Field("servedPostalCodes", func(e *jx.Encoder) { encodeMessages(e, codes) })
		})
	})
}

func encodeMessages(e *jx.Encoder, msgs []string) {
	e.Arr(func(e *jx.Encoder) {
		for _, m := range msgs {
			e.Str(m)
		}
	})
}
