// internal/app/features/topics/handler.go
package topics

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	topicstore "github.com/linlinlin97264/topic-manage/internal/app/store/topics"
	"github.com/linlinlin97264/topic-manage/internal/app/system/apperror"
	"github.com/linlinlin97264/topic-manage/internal/app/system/authz"
	"github.com/linlinlin97264/topic-manage/internal/app/system/httpjson"
	"github.com/linlinlin97264/topic-manage/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Topics *topicstore.Store
	Log    *zap.Logger
}

func NewHandler(topics *topicstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Topics: topics, Log: logger}
}

// principal returns the signed-in uid or an unauthenticated error. The
// routes are mounted behind RequireSignedIn, so a miss here means the
// session middleware is not in the chain.
func principal(r *http.Request) (string, error) {
	uid, _, ok := authz.UserCtx(r)
	if !ok {
		return "", apperror.Unauthenticated()
	}
	return uid, nil
}

func topicID(r *http.Request) string {
	return chi.URLParam(r, "topicID")
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	ExpectedVersion int64   `json:"expectedVersion"`
}

// HandleList handles GET /api/topics.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Topics.List(ctx, uid)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	httpjson.Write(w, h.Log, http.StatusOK, list)
}

// HandleCreate handles POST /api/topics.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	var req createRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	topic, err := h.Topics.Create(ctx, uid, req.Name, req.Description)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	h.Log.Info("topic created", zap.String("topic_id", topic.ID), zap.String("owner", uid))
	httpjson.Write(w, h.Log, http.StatusCreated, topic)
}

// HandleGet handles GET /api/topics/{topicID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	topic, err := h.Topics.Get(ctx, uid, topicID(r))
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	httpjson.Write(w, h.Log, http.StatusOK, topic)
}

// HandleUpdate handles PATCH /api/topics/{topicID}. The body carries
// the version the caller read; a stale version gets 409 and no write.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	var req updateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	if req.Name == nil && req.Description == nil {
		httpjson.WriteError(w, h.Log, apperror.InvalidArgument("body", "nothing to update"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	topic, err := h.Topics.Update(ctx, uid, topicID(r), topicstore.UpdatePatch{
		Name:            req.Name,
		Description:     req.Description,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	httpjson.Write(w, h.Log, http.StatusOK, topic)
}

// HandleDelete handles DELETE /api/topics/{topicID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	id := topicID(r)
	if err := h.Topics.Delete(ctx, uid, id); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	h.Log.Info("topic deleted", zap.String("topic_id", id), zap.String("by", uid))
	w.WriteHeader(http.StatusNoContent)
}
