package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pontos/backend/internal/domain/shared/valueobject"
)

// CPFQuery is the query string of the CPF tools
type CPFQuery struct {
	CPF string `form:"cpf" binding:"required" example:"529.982.247-25"`
}

// CPFFormatQuery is the query string of the formatter. An empty value is
// formatted like any other non-matching input.
type CPFFormatQuery struct {
	CPF string `form:"cpf" example:"52998224725"`
}

// CPFValidationResponse reports whether a CPF passes the check digits
// @name HandlerCPFValidationResponse
type CPFValidationResponse struct {
	Valid     bool   `json:"valid"`
	Raw       string `json:"raw" example:"52998224725"`
	Formatted string `json:"formatted" example:"529.982.247-25"`
}

// CPFFormatResponse carries a formatted CPF
// @name HandlerCPFFormatResponse
type CPFFormatResponse struct {
	Formatted string `json:"formatted" example:"529.982.247-25"`
}

// CPFHandler exposes the CPF validator and formatter
type CPFHandler struct {
	BaseHandler
}

// NewCPFHandler creates a new CPF handler
func NewCPFHandler() *CPFHandler {
	return &CPFHandler{}
}

// Validate godoc
// @ID           validateCpf
// @Summary      Validate a CPF
// @Description  Punctuation is ignored. Formatting is applied to the digits whether or not the check digits match.
// @Tags         cpf
// @Produce      json
// @Param        cpf query string true "CPF, with or without mask"
// @Success      200 {object} APIResponse[CPFValidationResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /cpf/validate [get]
func (h *CPFHandler) Validate(c *gin.Context) {
	var q CPFQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	raw := valueobject.StripNonDigits(q.CPF)
	h.Success(c, CPFValidationResponse{
		Valid:     valueobject.IsValidCPF(q.CPF),
		Raw:       raw,
		Formatted: valueobject.FormatCPF(raw),
	})
}

// Format godoc
// @ID           formatCpf
// @Summary      Format a CPF
// @Description  Eleven digits become AAA.BBB.CCC-DD. Anything else is returned unchanged.
// @Tags         cpf
// @Produce      json
// @Param        cpf query string false "Eleven digits"
// @Success      200 {object} APIResponse[CPFFormatResponse]
// @Router       /cpf/format [get]
func (h *CPFHandler) Format(c *gin.Context) {
	var q CPFFormatQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	h.Success(c, CPFFormatResponse{Formatted: valueobject.FormatCPF(q.CPF)})
}
