package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apployalty "github.com/pontos/backend/internal/application/loyalty"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/interfaces/http/dto"
)

// CustomerService is the staff-facing customer workflow
type CustomerService interface {
	List(ctx context.Context, input apployalty.ListCustomersInput) (*shared.Paginated[apployalty.RankingEntry], error)
	GetByID(ctx context.Context, id uuid.UUID) (*apployalty.CustomerDTO, error)
	Update(ctx context.Context, id, operatorID uuid.UUID, input apployalty.UpdateCustomerInput) (*apployalty.CustomerDTO, error)
}

// ListCustomersQuery filters the ranking
type ListCustomersQuery struct {
	CPF string `form:"cpf" binding:"omitempty,max=14"`
	dto.PageRequest
}

// UpdateCustomerRequest is the body of PUT /customers/:id
// @name HandlerUpdateCustomerRequest
type UpdateCustomerRequest struct {
	Name   string `json:"name" binding:"omitempty,max=200" example:"Ana Lima"`
	Phone  string `json:"phone" binding:"omitempty,max=20" example:"(11) 98765-4321"`
	Points *int64 `json:"points" binding:"required" example:"120"`
	CPF    string `json:"cpf" example:"529.982.247-25"`
}

// CustomerHandler handles the customer ranking and edits
type CustomerHandler struct {
	BaseHandler
	customerService CustomerService
	pointsService   PointsService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService CustomerService, pointsService PointsService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, pointsService: pointsService}
}

// List godoc
// @ID           listCustomers
// @Summary      Customer ranking
// @Description  Customers ordered by points, highest first. The cpf filter ignores punctuation and matches any part of the CPF.
// @Tags         customers
// @Produce      json
// @Param        cpf query string false "CPF fragment"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]apployalty.RankingEntry]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var q ListCustomersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.customerService.List(c.Request.Context(), apployalty.ListCustomersInput{
		CPF:      q.CPF,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getCustomerById
// @Summary      Get customer by ID
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[apployalty.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	customer, err := h.customerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Edit a customer
// @Description  Sets name, phone, balance and CPF. A balance change is recorded as an ADJUST ledger entry.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body UpdateCustomerRequest true "Customer fields"
// @Success      200 {object} APIResponse[apployalty.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	operatorID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), id, operatorID, apployalty.UpdateCustomerInput{
		Name:   req.Name,
		Phone:  req.Phone,
		Points: *req.Points,
		CPF:    req.CPF,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// ListTransactions godoc
// @ID           listCustomerTransactions
// @Summary      Customer points ledger
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]apployalty.TransactionDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/transactions [get]
func (h *CustomerHandler) ListTransactions(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var q dto.PageRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	filter := shared.DefaultFilter()
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}

	page, err := h.pointsService.ListTransactions(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
