package handlers

import (
	"net/http"

	"github.com/Marga-Ghale/teamhub-backend/internal/api/middleware"
	"github.com/Marga-Ghale/teamhub-backend/internal/models"
	"github.com/Marga-Ghale/teamhub-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Workspace Handler
// ============================================

type WorkspaceHandler struct {
	workspaceService service.WorkspaceService
}

func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req models.CreateWorkspaceRequest
	if !bindJSON(c, &req) {
		return
	}

	workspace, err := h.workspaceService.Create(c.Request.Context(), middleware.GetActor(c), req.Name, req.Members)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, gin.H{
		"message":   "Workspace created successfully",
		"workspace": models.NewWorkspaceResponse(workspace),
	})
}

func (h *WorkspaceHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	workspaces, err := h.workspaceService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"count":      len(workspaces),
		"workspaces": models.NewWorkspaceResponses(workspaces),
	})
}

func (h *WorkspaceHandler) Get(c *gin.Context) {
	workspace, err := h.workspaceService.Get(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"workspace": models.NewWorkspaceResponse(workspace)})
}

func (h *WorkspaceHandler) Update(c *gin.Context) {
	var req models.UpdateWorkspaceRequest
	if !bindJSON(c, &req) {
		return
	}

	workspace, err := h.workspaceService.Update(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"workspace": models.NewWorkspaceResponse(workspace)})
}

func (h *WorkspaceHandler) AddMembers(c *gin.Context) {
	var req models.AddMembersRequest
	if !bindJSON(c, &req) {
		return
	}

	workspace, err := h.workspaceService.AddMembers(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req.Members)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message":   "Members added successfully",
		"workspace": models.NewWorkspaceResponse(workspace),
	})
}

func (h *WorkspaceHandler) Leave(c *gin.Context) {
	if err := h.workspaceService.Leave(c.Request.Context(), middleware.GetActor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Left workspace successfully"})
}

func (h *WorkspaceHandler) Delete(c *gin.Context) {
	if err := h.workspaceService.Delete(c.Request.Context(), middleware.GetActor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Workspace deleted successfully"})
}
