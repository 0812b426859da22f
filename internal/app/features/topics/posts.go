// internal/app/features/topics/posts.go
package topics

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linlinlin97264/topic-manage/internal/app/system/httpjson"
	"github.com/linlinlin97264/topic-manage/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func postID(r *http.Request) string {
	return chi.URLParam(r, "postID")
}

// HandleListPosts handles GET /api/topics/{topicID}/posts.
func (h *Handler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	posts, err := h.Topics.ListPosts(ctx, uid, topicID(r))
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	httpjson.Write(w, h.Log, http.StatusOK, posts)
}

// HandleAddPost handles POST /api/topics/{topicID}/posts.
func (h *Handler) HandleAddPost(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	var req postRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	post, err := h.Topics.AddPost(ctx, uid, topicID(r), req.Title, req.Content)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	h.Log.Info("post added",
		zap.String("topic_id", topicID(r)),
		zap.String("post_id", post.ID),
		zap.String("author", uid))
	httpjson.Write(w, h.Log, http.StatusCreated, post)
}

// HandleGetPost handles GET /api/topics/{topicID}/posts/{postID}.
func (h *Handler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	post, err := h.Topics.GetPost(ctx, uid, topicID(r), postID(r))
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	httpjson.Write(w, h.Log, http.StatusOK, post)
}

// HandleEditPost handles PATCH /api/topics/{topicID}/posts/{postID}.
func (h *Handler) HandleEditPost(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	var req postRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	post, err := h.Topics.EditPost(ctx, uid, topicID(r), postID(r), req.Title, req.Content)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	httpjson.Write(w, h.Log, http.StatusOK, post)
}

// HandleRemovePost handles DELETE /api/topics/{topicID}/posts/{postID}.
func (h *Handler) HandleRemovePost(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Topics.RemovePost(ctx, uid, topicID(r), postID(r)); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
