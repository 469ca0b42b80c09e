package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCPFRouter() *gin.Engine {
	h := NewCPFHandler()
	r := gin.New()
	r.GET("/cpf/validate", h.Validate)
	r.GET("/cpf/format", h.Format)
	return r
}

func TestCPFHandler_Validate(t *testing.T) {
	tests := []struct {
		input string
		want  CPFValidationResponse
	}{
		{"529.982.247-25", CPFValidationResponse{Valid: true, Raw: "52998224725", Formatted: "529.982.247-25"}},
		{"52998224725", CPFValidationResponse{Valid: true, Raw: "52998224725", Formatted: "529.982.247-25"}},
		{"52998224726", CPFValidationResponse{Valid: false, Raw: "52998224726", Formatted: "529.982.247-26"}},
		{"111.111.111-11", CPFValidationResponse{Valid: false, Raw: "11111111111", Formatted: "111.111.111-11"}},
		{"123", CPFValidationResponse{Valid: false, Raw: "123", Formatted: "123"}},
	}

	router := newCPFRouter()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			w := doJSON(router, http.MethodGet, "/cpf/validate?cpf="+url.QueryEscape(tt.input), nil)
			assert.Equal(t, http.StatusOK, w.Code)

			var got CPFValidationResponse
			decodeData(t, w, &got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCPFHandler_Format(t *testing.T) {
	router := newCPFRouter()

	tests := []struct {
		input string
		want  string
	}{
		{"52998224725", "529.982.247-25"},
		{"12345678909", "123.456.789-09"},
		{"529.982.247-25", "529.982.247-25"},
		{"1234", "1234"},
		{"abcdefghijk", "abcdefghijk"},
		{"", ""},
	}
	for _, tt := range tests {
		w := doJSON(router, http.MethodGet, "/cpf/format?cpf="+url.QueryEscape(tt.input), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var got CPFFormatResponse
		decodeData(t, w, &got)
		assert.Equal(t, tt.want, got.Formatted, tt.input)
	}
}

func TestCPFHandler_MissingQuery(t *testing.T) {
	router := newCPFRouter()

	w := doJSON(router, http.MethodGet, "/cpf/validate", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/cpf/format", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got CPFFormatResponse
	decodeData(t, w, &got)
	assert.Empty(t, got.Formatted)
}
