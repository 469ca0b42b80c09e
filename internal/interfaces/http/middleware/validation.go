package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pontos/backend/internal/domain/shared/valueobject"
	"github.com/pontos/backend/internal/interfaces/http/dto"
)

// SetupValidator configures gin's validator: JSON/form names in errors and
// the cpf tag.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	return RegisterCPFValidation(v)
}

// RegisterCPFValidation adds the cpf tag, accepting masked or bare CPFs with
// valid check digits.
func RegisterCPFValidation(v *validator.Validate) error {
	return v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return valueobject.IsValidCPF(fl.Field().String())
	})
}

// FormatValidationErrors formats binding errors into the error envelope
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
			})
		}
		return dto.NewValidationErrorResponse("Dados inválidos.", requestID, details)
	}

	return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Corpo da requisição inválido.", requestID)
}

// HandleValidationError answers 400 with the formatted binding error
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Campo obrigatório."
	case "cpf":
		return "CPF inválido."
	case "email":
		return "Email inválido."
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Deve ter pelo menos " + e.Param() + " caracteres."
		}
		return "Deve ser no mínimo " + e.Param() + "."
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Deve ter no máximo " + e.Param() + " caracteres."
		}
		return "Deve ser no máximo " + e.Param() + "."
	case "gt":
		return "Deve ser maior que " + e.Param() + "."
	case "gte":
		return "Deve ser maior ou igual a " + e.Param() + "."
	case "uuid":
		return "Identificador inválido."
	case "numeric":
		return "Deve conter apenas números."
	default:
		return "Valor inválido."
	}
}
