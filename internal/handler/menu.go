package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/noortjevm/forno/internal/domain/menu"
)

// ListMenu handles GET /api/menu. Pizza prices and dietary labels are
// derived from the ingredient sets on every request.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, it := range items {
				encodeMenuItem(e, it)
			}
		})
	})
}

func encodeMenuItem(e *jx.Encoder, it menu.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("kind", func(e *jx.Encoder) { e.Str(string(it.Kind)) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Str(it.UnitPrice().Round(2).StringFixed(2)) })
		if it.Kind != menu.KindPizza {
			return
		}
		e.Field("label", func(e *jx.Encoder) { e.Str(string(it.DietaryLabel())) })
		e.Field("ingredients", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, ing := range it.Ingredients {
					e.Str(ing.Name)
				}
			})
		})
	})
}
