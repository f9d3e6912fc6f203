package http

import (
	"net/http"

	"github.com/aussiebroadwan/tms/internal/tms/security"
	"github.com/aussiebroadwan/tms/internal/tms/service"
	"github.com/aussiebroadwan/tms/pkg/authsdk"
	"github.com/aussiebroadwan/tms/pkg/httpx"
)

type CommentHandler struct {
	CommentService *service.CommentService
}

// HandleCreate godoc
//
//	@Summary		Comment on a task
//	@Tags			Comments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateCommentRequest	true	"comment"
//	@Success		201		{object}	authsdk.CommentResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		404		{object}	authsdk.ErrorResponse	"task not found"
//	@Router			/api/comment [post].
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := security.PrincipalFrom(r.Context())
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	var req authsdk.CreateCommentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	c, err := h.CommentService.Create(r.Context(), principal.UserID, req.TaskID, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toCommentResponse(c))
}

// HandleDelete godoc
//
//	@Summary		Delete a comment
//	@Description	Admin only.
//	@Tags			Comments
//	@Security		BearerAuth
//	@Param			id	path	int	true	"comment id"
//	@Success		204
//	@Failure		403	{object}	authsdk.ErrorResponse
//	@Failure		404	{object}	authsdk.ErrorResponse
//	@Router			/api/comment/{id} [delete].
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := h.CommentService.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
