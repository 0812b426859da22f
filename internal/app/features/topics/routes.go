// internal/app/features/topics/routes.go
package topics

import (
	"github.com/linlinlin97264/topic-manage/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.HandleList)
		pr.Post("/", h.HandleCreate)
		pr.Get("/watch", h.HandleWatch)

		pr.Route("/{topicID}", func(tr chi.Router) {
			tr.Get("/", h.HandleGet)
			tr.Patch("/", h.HandleUpdate)
			tr.Delete("/", h.HandleDelete)

			tr.Get("/members", h.HandleMembers)
			tr.Post("/roles", h.HandleAddRole)
			tr.Delete("/roles/{uid}", h.HandleRemoveRole)

			tr.Get("/posts", h.HandleListPosts)
			tr.Post("/posts", h.HandleAddPost)
			tr.Get("/posts/watch", h.HandleWatchPosts)
			tr.Get("/posts/{postID}", h.HandleGetPost)
			tr.Patch("/posts/{postID}", h.HandleEditPost)
			tr.Delete("/posts/{postID}", h.HandleRemovePost)
		})
	})
	return r
}
