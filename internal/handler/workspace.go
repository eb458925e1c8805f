package handler

import (
	"log/slog"
	"net/http"

	"idealite/internal/domain"
	svc "idealite/internal/domain/services/workspace"
	"idealite/internal/httputil"
)

// WorkspaceHandler exposes the workspace service over HTTP. Mutations answer
// {"success":true,"id":...} or {"success":false,"error":...}.
type WorkspaceHandler struct {
	service svc.WorkspaceService
	logger  *slog.Logger
}

func NewWorkspaceHandler(service svc.WorkspaceService, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the workspace endpoints on mux
func (h *WorkspaceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /api/workspace/tree", h.GetTree)
	mux.HandleFunc("POST /api/pages", h.CreatePage)
	mux.HandleFunc("POST /api/pages/{id}/move", h.MovePage)
	mux.HandleFunc("POST /api/folders", h.CreateFolder)
	mux.HandleFunc("POST /api/tags/{id}/delete", h.DeleteTag)
	mux.HandleFunc("POST /api/collapsed", h.SetCollapsed)
}

// HealthCheck is unauthenticated
func (h *WorkspaceHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetTree returns the caller's forest and nested view
// GET /api/workspace/tree
func (h *WorkspaceHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		handleError(w, domain.ErrUnauthorized)
		return
	}

	tree, err := h.service.GetTree(r.Context(), userID)
	if err != nil {
		h.logError(r, "get tree failed", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}

// CreatePage creates a page with the client-assigned ID. Retries with the
// same ID return the existing page.
// POST /api/pages
func (h *WorkspaceHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req svc.CreatePageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondFailure(w, &domain.ValidationError{Message: err.Error()})
		return
	}

	page, err := h.service.CreatePage(r.Context(), userID, &req)
	if err != nil {
		h.logError(r, "create page failed", err)
		respondFailure(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, page.ID)
}

// CreateFolder creates a folder with the client-assigned ID
// POST /api/folders
func (h *WorkspaceHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req svc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondFailure(w, &domain.ValidationError{Message: err.Error()})
		return
	}

	folder, err := h.service.CreateFolder(r.Context(), userID, &req)
	if err != nil {
		h.logError(r, "create folder failed", err)
		respondFailure(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, folder.ID)
}

// DeleteTag archives a tag and the pages left with no tag outside its
// subtree. Descendant tags are archived by ancestry only.
// POST /api/tags/{id}/delete
func (h *WorkspaceHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	req := svc.DeleteTagRequest{TagID: r.PathValue("id")}
	result, err := h.service.DeleteTag(r.Context(), userID, &req)
	if err != nil {
		h.logError(r, "delete tag failed", err)
		respondFailure(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, result.TagID)
}

// MovePage changes a page's primary tag and folder
// POST /api/pages/{id}/move
func (h *WorkspaceHandler) MovePage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req svc.MovePageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondFailure(w, &domain.ValidationError{Message: err.Error()})
		return
	}
	req.PageID = r.PathValue("id")

	page, err := h.service.MovePage(r.Context(), userID, &req)
	if err != nil {
		h.logError(r, "move page failed", err)
		respondFailure(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, page.ID)
}

// SetCollapsed persists a tag or folder expansion state
// POST /api/collapsed
func (h *WorkspaceHandler) SetCollapsed(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req svc.SetCollapsedRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondFailure(w, &domain.ValidationError{Message: err.Error()})
		return
	}

	if err := h.service.SetCollapsed(r.Context(), userID, &req); err != nil {
		h.logError(r, "set collapsed failed", err)
		respondFailure(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, req.ID)
}

func (h *WorkspaceHandler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		respondFailure(w, domain.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

// logError logs server faults at Error and client mistakes at Debug
func (h *WorkspaceHandler) logError(r *http.Request, msg string, err error) {
	level := slog.LevelDebug
	if statusFor(err) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, msg,
		"path", r.URL.Path,
		"error", err,
	)
}
