package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// ListPostalCodes handles GET /api/delivery/postal-codes, the roster of
// areas with an assigned delivery agent.
func (h *Handler) ListPostalCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.agents.ListServedPostalCodes(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("postalCodes", func(e *jx.Encoder) { encodeMessages(e, codes) })
		})
	})
}
