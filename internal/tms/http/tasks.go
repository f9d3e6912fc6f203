package http

import (
	"net/http"

	"github.com/aussiebroadwan/tms/internal/tms/security"
	"github.com/aussiebroadwan/tms/internal/tms/service"
	"github.com/aussiebroadwan/tms/pkg/authsdk"
	"github.com/aussiebroadwan/tms/pkg/httpx"
)

type TaskHandler struct {
	TaskService *service.TaskService
}

// HandleGet godoc
//
//	@Summary		Get a task
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"task id"
//	@Success		200	{object}	authsdk.TaskResponse
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Failure		403	{object}	authsdk.ErrorResponse	"not the author"
//	@Failure		404	{object}	authsdk.ErrorResponse
//	@Router			/api/task/{id} [get].
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	t, err := h.TaskService.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTaskResponse(t))
}

// HandleCreate godoc
//
//	@Summary		Create a task
//	@Description	The current user becomes the author.
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateTaskRequest	true	"task"
//	@Success		201		{object}	authsdk.TaskResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Router			/api/task [post].
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := security.PrincipalFrom(r.Context())
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	var req authsdk.CreateTaskRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	t, err := h.TaskService.Create(r.Context(), principal.UserID, req.Title, req.Description, req.Priority)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toTaskResponse(t))
}

// HandleUpdateStatus godoc
//
//	@Summary		Change task status
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int								true	"task id"
//	@Param			request	body		authsdk.UpdateTaskStatusRequest	true	"OPEN, TO_DO, IN_PROGRESS, DONE, REOPENED or CLOSED"
//	@Success		200		{object}	authsdk.TaskResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse
//	@Failure		404		{object}	authsdk.ErrorResponse
//	@Router			/api/task/{id}/status [put].
func (h *TaskHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req authsdk.UpdateTaskStatusRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	t, err := h.TaskService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTaskResponse(t))
}
