package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apployalty "github.com/pontos/backend/internal/application/loyalty"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/interfaces/http/dto"
	"github.com/pontos/backend/internal/interfaces/http/middleware"
)

// PointsService is the points workflow used by the HTTP layer
type PointsService interface {
	AddPoints(ctx context.Context, input apployalty.AddPointsInput) (*apployalty.AddPointsResult, error)
	ListTransactions(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[apployalty.TransactionDTO], error)
}

// AddPointsRequest is the body of POST /points
// @name HandlerAddPointsRequest
type AddPointsRequest struct {
	CPF    string `json:"cpf" binding:"required,cpf" example:"529.982.247-25"`
	Points int64  `json:"points" binding:"required,gt=0" example:"10"`
	Name   string `json:"name" binding:"omitempty,max=200" example:"Ana Lima"`
}

// AddPointsResponse reports a points registration
// @name HandlerAddPointsResponse
type AddPointsResponse struct {
	Customer    apployalty.CustomerDTO `json:"customer"`
	PointsAdded int64                  `json:"points_added"`
	DisplayName string                 `json:"display_name"`
	Created     bool                   `json:"created"`
	Message     string                 `json:"message"`
}

// PointsHandler handles points registration
type PointsHandler struct {
	BaseHandler
	pointsService PointsService
}

// NewPointsHandler creates a new points handler
func NewPointsHandler(pointsService PointsService) *PointsHandler {
	return &PointsHandler{pointsService: pointsService}
}

// AddPoints godoc
// @ID           addPoints
// @Summary      Register points for a CPF
// @Description  Credits points to the customer holding the CPF, creating the customer when it does not exist yet
// @Tags         points
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Rejects a repeated submission"
// @Param        request body AddPointsRequest true "Points registration"
// @Success      200 {object} APIResponse[AddPointsResponse]
// @Success      201 {object} APIResponse[AddPointsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /points [post]
func (h *PointsHandler) AddPoints(c *gin.Context) {
	operatorID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req AddPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.pointsService.AddPoints(c.Request.Context(), apployalty.AddPointsInput{
		CPF:            req.CPF,
		Points:         req.Points,
		Name:           req.Name,
		OperatorID:     operatorID,
		IdempotencyKey: c.GetHeader(middleware.IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := AddPointsResponse{
		Customer:    result.Customer,
		PointsAdded: result.PointsAdded,
		DisplayName: result.DisplayName,
		Created:     result.Created,
		Message:     fmt.Sprintf("Sucesso! %d pontos adicionados para: %s.", result.PointsAdded, result.DisplayName),
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}
