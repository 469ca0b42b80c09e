package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodePointsLimitExceeded is used when a single registration exceeds the configured cap
	ErrCodePointsLimitExceeded = "ERR_POINTS_LIMIT_EXCEEDED"
)

// Loyalty error codes
const (
	ErrCodeInvalidCPF      = "ERR_INVALID_CPF"
	ErrCodeCPFRequired     = "ERR_CPF_REQUIRED"
	ErrCodeCPFInUse        = "ERR_CPF_IN_USE"
	ErrCodeCPFAlreadySet   = "ERR_CPF_ALREADY_SET"
	ErrCodeInvalidPoints   = "ERR_INVALID_POINTS"
	ErrCodeInvalidPhone    = "ERR_INVALID_PHONE"
	ErrCodeInvalidEmail    = "ERR_INVALID_EMAIL"
	ErrCodeInvalidName     = "ERR_INVALID_NAME"
	ErrCodeInvalidPhoto    = "ERR_INVALID_PHOTO"
	ErrCodeDuplicateReq    = "ERR_DUPLICATE_REQUEST"
	ErrCodeInvalidCustomer = "ERR_INVALID_CUSTOMER"
)

// Account error codes
const (
	ErrCodeNameRequired       = "ERR_NAME_REQUIRED"
	ErrCodeWeakPassword       = "ERR_WEAK_PASSWORD"
	ErrCodeEmailInUse         = "ERR_EMAIL_IN_USE"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeInvalidResetToken  = "ERR_INVALID_RESET_TOKEN"
	ErrCodeInvalidToken       = "ERR_INVALID_TOKEN"
	ErrCodeTokenRevoked       = "ERR_TOKEN_REVOKED"
	// ErrCodeAccountLocked is returned after too many failed logins
	ErrCodeAccountLocked = "ERR_ACCOUNT_LOCKED"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodePointsLimitExceeded: http.StatusUnprocessableEntity,

	// Loyalty errors
	ErrCodeInvalidCPF:      http.StatusBadRequest,
	ErrCodeCPFRequired:     http.StatusBadRequest,
	ErrCodeInvalidPoints:   http.StatusBadRequest,
	ErrCodeInvalidPhone:    http.StatusBadRequest,
	ErrCodeInvalidEmail:    http.StatusBadRequest,
	ErrCodeInvalidName:     http.StatusBadRequest,
	ErrCodeInvalidPhoto:    http.StatusBadRequest,
	ErrCodeInvalidCustomer: http.StatusBadRequest,
	ErrCodeCPFInUse:        http.StatusConflict,
	ErrCodeCPFAlreadySet:   http.StatusConflict,
	ErrCodeDuplicateReq:    http.StatusConflict,

	// Account errors
	ErrCodeNameRequired:       http.StatusBadRequest,
	ErrCodeWeakPassword:       http.StatusBadRequest,
	ErrCodeInvalidResetToken:  http.StatusBadRequest,
	ErrCodeEmailInUse:         http.StatusConflict,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeInvalidToken:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	ErrCodeAccountLocked:      http.StatusLocked,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps old error codes to new standardized codes
// This is for backward compatibility with existing domain errors
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the ERR_ prefixed format.
// Codes already carrying the prefix are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	if code == "" || strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}
