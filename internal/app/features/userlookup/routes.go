// internal/app/features/userlookup/routes.go
package userlookup

import (
	"github.com/linlinlin97264/topic-manage/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/lookup", h.HandleLookup)
	})
	return r
}
