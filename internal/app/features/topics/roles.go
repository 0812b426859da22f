// internal/app/features/topics/roles.go
package topics

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linlinlin97264/topic-manage/internal/app/system/httpjson"
	"github.com/linlinlin97264/topic-manage/internal/app/system/timeouts"
	"github.com/linlinlin97264/topic-manage/internal/domain/models"
	"go.uber.org/zap"
)

type addRoleRequest struct {
	Role  string `json:"role"`
	Email string `json:"email"`
}

// HandleMembers handles GET /api/topics/{topicID}/members.
func (h *Handler) HandleMembers(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	members, err := h.Topics.Members(ctx, uid, topicID(r))
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	httpjson.Write(w, h.Log, http.StatusOK, members)
}

// HandleAddRole handles POST /api/topics/{topicID}/roles. Granting a
// role the target already holds, or any role to the owner, is a 409.
func (h *Handler) HandleAddRole(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	var req addRoleRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	member, err := h.Topics.AddRole(ctx, uid, topicID(r), req.Email, models.Role(req.Role))
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	h.Log.Info("topic role granted",
		zap.String("topic_id", topicID(r)),
		zap.String("target", member.UID),
		zap.String("role", string(member.Role)))
	httpjson.Write(w, h.Log, http.StatusCreated, member)
}

// HandleRemoveRole handles DELETE /api/topics/{topicID}/roles/{uid}.
// Removal is idempotent: revoking a role the target does not hold
// still returns 204.
func (h *Handler) HandleRemoveRole(w http.ResponseWriter, r *http.Request) {
	uid, err := principal(r)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	target := chi.URLParam(r, "uid")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Topics.RemoveRole(ctx, uid, topicID(r), target); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
