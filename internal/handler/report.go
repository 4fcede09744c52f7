package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/noortjevm/forno/internal/domain/delivery"
	"github.com/noortjevm/forno/internal/domain/order"
	"github.com/noortjevm/forno/internal/domain/report"
)

const topPizzaLimit = 5

// Earnings handles GET /api/reports/earnings. Query parameters year and
// month default to the current month; postal_code, gender, min_age, and
// max_age optionally narrow the earnings.
func (h *Handler) Earnings(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	year, month := now.Year(), now.Month()

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = time.Month(n)
	}

	filter := report.EarningsFilter{
		PostalCode: delivery.NormalizePostalCode(q.Get("postal_code")),
		Gender:     q.Get("gender"),
	}
	var err error
	if filter.MinAge, err = ageParam(q.Get("min_age")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid min_age")
		return
	}
	if filter.MaxAge, err = ageParam(q.Get("max_age")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid max_age")
		return
	}

	totals, err := h.reports.EarningsForMonth(r.Context(), year, month, filter)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	top, err := h.reports.TopPizzas(r.Context(), now.AddDate(0, 0, -30), topPizzaLimit)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("year", func(e *jx.Encoder) { e.Int(year) })
			e.Field("month", func(e *jx.Encoder) { e.Int(int(month)) })
			e.Field("customers", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, t := range totals {
						e.Obj(func(e *jx.Encoder) {
							e.Field("customerId", func(e *jx.Encoder) { e.Str(t.CustomerID) })
							e.Field("name", func(e *jx.Encoder) { e.Str(t.Name) })
							e.Field("orders", func(e *jx.Encoder) { e.Int(t.Orders) })
							e.Field("total", func(e *jx.Encoder) { e.Str(t.Total.StringFixed(2)) })
						})
					}
				})
			})
			e.Field("topPizzas", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, p := range top {
						e.Obj(func(e *jx.Encoder) {
							e.Field("menuItemId", func(e *jx.Encoder) { e.Str(p.MenuItemID) })
							e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
							e.Field("units", func(e *jx.Encoder) { e.Int(p.Units) })
						})
					}
				})
			})
		})
	})
}

// UndeliveredOrders handles GET /api/reports/undelivered. Status is derived
// from the pickup time at response time, never stored.
func (h *Handler) UndeliveredOrders(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	rows, err := h.reports.UndeliveredOrders(r.Context(), now)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, u := range rows {
				status := order.StatusOutForDelivery
				if now.Before(u.PickupAt) {
					status = order.StatusPending
				}
				e.Obj(func(e *jx.Encoder) {
					e.Field("orderId", func(e *jx.Encoder) { e.Str(u.OrderID) })
					e.Field("customer", func(e *jx.Encoder) { e.Str(u.CustomerName) })
					e.Field("agent", func(e *jx.Encoder) { e.Str(u.AgentName) })
					e.Field("postalCode", func(e *jx.Encoder) { e.Str(u.PostalCode) })
					e.Field("pickupAt", func(e *jx.Encoder) { encodeTime(e, u.PickupAt) })
					e.Field("expectedDeliveryAt", func(e *jx.Encoder) { encodeTime(e, u.PickupAt.Add(delivery.Duration)) })
					e.Field("status", func(e *jx.Encoder) { e.Str(string(status)) })
					e.Field("total", func(e *jx.Encoder) { e.Str(u.Total.StringFixed(2)) })
				})
			}
		})
	})
}

// ageParam parses an optional age bound; empty means no bound.
func ageParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid age")
	}
	return n, nil
}
