// Package handler exposes the HTTP API. Requests are decoded from JSON,
// delegated to the domain services, and encoded with jx.
package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/noortjevm/forno/internal/domain/delivery"
	"github.com/noortjevm/forno/internal/domain/menu"
	"github.com/noortjevm/forno/internal/domain/order"
	"github.com/noortjevm/forno/internal/domain/report"
)

// Handler carries the domain dependencies of the HTTP endpoints.
type Handler struct {
	menu    menu.Repository
	orders  *order.Service
	agents  delivery.Repository
	reports report.Repository

	// now returns the current time in the business timezone, used for
	// derived order status and report defaults.
	now func() time.Time
}

// NewHandler constructs a Handler with the required domain dependencies.
// loc is the business timezone.
func NewHandler(
	m menu.Repository,
	orders *order.Service,
	agents delivery.Repository,
	reports report.Repository,
	loc *time.Location,
) *Handler {
	return &Handler{
		menu:    m,
		orders:  orders,
		agents:  agents,
		reports: reports,
		now:     func() time.Time { return time.Now().In(loc) },
	}
}

// writeJSON encodes one JSON value built by encode and writes it with the
// given status.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard error envelope {code, message}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

// writeInternalError logs the error and writes an opaque 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.Format(time.RFC3339))
}
