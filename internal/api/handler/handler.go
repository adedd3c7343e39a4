package handler

import (
	"errors"
	"net/http"

	"docflow/internal/api/dto"
	"docflow/internal/condition"
	"docflow/internal/core/ports"
	"docflow/internal/domain"
	"docflow/internal/engine"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EngineHandler struct {
	engine *engine.Engine
	graphs ports.GraphRepository
}

func NewEngineHandler(eng *engine.Engine, graphs ports.GraphRepository) *EngineHandler {
	return &EngineHandler{engine: eng, graphs: graphs}
}

func (h *EngineHandler) CreateApprovalTask(c *gin.Context) {
	var req dto.CreateApprovalTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.engine.CreateApprovalTask(c.Request.Context(), req.DocumentID, req.NodeID, req.TimeoutDays)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *EngineHandler) ExecuteAction(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	actorID, err := uuid.Parse(c.GetHeader("X-Actor-ID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid X-Actor-ID header"})
		return
	}

	var req dto.ExecuteActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	history, err := h.engine.ExecuteApprovalAction(c.Request.Context(), taskID, req.ActionKey, actorID, req.Comment)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *EngineHandler) ListPendingApprovals(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid userId"})
		return
	}

	var documentTypeID *uuid.UUID
	if raw := c.Query("documentTypeId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid documentTypeId"})
			return
		}
		documentTypeID = &id
	}

	tasks, err := h.engine.ListPendingApprovals(c.Request.Context(), userID, documentTypeID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *EngineHandler) NodeActions(c *gin.Context) {
	nodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return
	}

	node, err := h.graphs.FindNodeByID(c.Request.Context(), nodeID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	actions, err := h.engine.DeriveActions(c.Request.Context(), node)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

func (h *EngineHandler) DeleteNode(c *gin.Context) {
	nodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return
	}

	if err := h.graphs.DeleteNode(c.Request.Context(), nodeID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *EngineHandler) CheckPermission(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid userId"})
		return
	}
	kind := engine.PermissionKind(c.Query("kind"))
	switch kind {
	case engine.PermissionView, engine.PermissionEditMainForm, engine.PermissionEditChildForms:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid permission kind"})
		return
	}

	allowed := h.engine.CheckPermission(c.Request.Context(), documentID, userID, kind)
	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}

func (h *EngineHandler) DocumentHistory(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	history, err := h.engine.DocumentHistory(c.Request.Context(), documentID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *EngineHandler) EvaluateConditions(c *gin.Context) {
	var req dto.EvaluateConditionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logic := condition.Logic(req.Logic)
	if logic == "" {
		logic = condition.LogicAnd
	}

	result := condition.EvaluateAll(req.Conditions, req.Data, logic)
	c.JSON(http.StatusOK, gin.H{"satisfied": result})
}

// statusFor maps the engine's error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	var (
		configErr        *domain.ConfigurationError
		invalidState     *domain.InvalidStateError
		actionNotFound   *domain.ActionNotFoundError
		commentRequired  *domain.CommentRequiredError
		targetNodeMissed *domain.TargetNodeMissingError
	)

	switch {
	case errors.As(err, &configErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &invalidState):
		return http.StatusConflict
	case errors.As(err, &actionNotFound):
		return http.StatusNotFound
	case errors.As(err, &commentRequired):
		return http.StatusBadRequest
	case errors.As(err, &targetNodeMissed):
		return http.StatusConflict
	case errors.Is(err, ports.ErrNodeReferenced):
		return http.StatusConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
