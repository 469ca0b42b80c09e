package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	appidentity "github.com/pontos/backend/internal/application/identity"
	"github.com/pontos/backend/internal/domain/identity"
	"github.com/pontos/backend/internal/infrastructure/auth"
	"github.com/pontos/backend/internal/interfaces/http/dto"
	"github.com/pontos/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(svc AuthService, userID uuid.UUID, claims *auth.Claims) *gin.Engine {
	h := NewAuthHandler(svc)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.RefreshToken)
	r.POST("/auth/password-reset", h.RequestPasswordReset)
	r.POST("/auth/password-reset/confirm", h.ConfirmPasswordReset)

	protected := r.Group("", func(c *gin.Context) {
		if userID != uuid.Nil {
			setJWTContext(c, userID)
		}
		if claims != nil {
			c.Set(middleware.JWTClaimsKey, claims)
		}
		c.Next()
	})
	protected.POST("/auth/logout", h.Logout)
	protected.GET("/auth/me", h.GetCurrentUser)
	return r
}

func sampleLoginResult() *appidentity.LoginResult {
	now := time.Now().UTC()
	return &appidentity.LoginResult{
		AccessToken:           "access",
		RefreshToken:          "refresh",
		AccessTokenExpiresAt:  now.Add(15 * time.Minute),
		RefreshTokenExpiresAt: now.Add(7 * 24 * time.Hour),
		TokenType:             "Bearer",
		User:                  appidentity.UserInfo{ID: uuid.New(), Email: "ana@example.com", DisplayName: "Ana"},
	}
}

func TestAuthHandler_Register(t *testing.T) {
	svc := new(MockAuthService)
	router := newAuthRouter(svc, uuid.Nil, nil)
	result := sampleLoginResult()

	svc.On("Register", mock.Anything, mock.MatchedBy(func(in appidentity.RegisterInput) bool {
		return in.Name == "Ana" && in.Email == "ana@example.com" && in.Password == "segredo123" && in.IP != ""
	})).Return(result, nil)

	w := doJSON(router, http.MethodPost, "/auth/register", RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "segredo123"})
	assert.Equal(t, http.StatusCreated, w.Code)

	var got AuthResponse
	decodeData(t, w, &got)
	assert.Equal(t, "access", got.Token.AccessToken)
	assert.Equal(t, "refresh", got.Token.RefreshToken)
	assert.Equal(t, "Bearer", got.Token.TokenType)
	assert.Equal(t, result.User.ID, got.User.ID)
	svc.AssertExpectations(t)
}

func TestAuthHandler_Register_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"name required", identity.ErrNameRequired, http.StatusBadRequest, dto.ErrCodeNameRequired},
		{"weak password", identity.ErrWeakPassword, http.StatusBadRequest, dto.ErrCodeWeakPassword},
		{"email in use", appidentity.ErrEmailInUse, http.StatusConflict, dto.ErrCodeEmailInUse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			svc.On("Register", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := doJSON(newAuthRouter(svc, uuid.Nil, nil), http.MethodPost, "/auth/register", RegisterRequest{Email: "ana@example.com"})
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeResponse(t, w).Error.Code)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, mock.MatchedBy(func(in appidentity.LoginInput) bool {
			return in.Email == "ana@example.com" && in.Password == "segredo123"
		})).Return(sampleLoginResult(), nil)

		w := doJSON(newAuthRouter(svc, uuid.Nil, nil), http.MethodPost, "/auth/login", LoginRequest{Email: "ana@example.com", Password: "segredo123"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		svc := new(MockAuthService)
		w := doJSON(newAuthRouter(svc, uuid.Nil, nil), http.MethodPost, "/auth/login", map[string]string{"email": "nope"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Details)
		svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, mock.Anything).Return(nil, appidentity.ErrInvalidCredentials)

		w := doJSON(newAuthRouter(svc, uuid.Nil, nil), http.MethodPost, "/auth/login", LoginRequest{Email: "ana@example.com", Password: "x"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInvalidCredentials, resp.Error.Code)
		assert.Equal(t, "Email ou senha inválidos.", resp.Error.Message)
	})

	t.Run("locked account", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, mock.Anything).Return(nil, identity.ErrAccountLocked)

		w := doJSON(newAuthRouter(svc, uuid.Nil, nil), http.MethodPost, "/auth/login", LoginRequest{Email: "ana@example.com", Password: "x"})
		assert.Equal(t, http.StatusLocked, w.Code)
	})
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Refresh", mock.Anything, "old-refresh").Return(sampleLoginResult(), nil)
	svc.On("Refresh", mock.Anything, "revoked").Return(nil, appidentity.ErrTokenRevoked)
	router := newAuthRouter(svc, uuid.Nil, nil)

	w := doJSON(router, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: "old-refresh"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: "revoked"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, decodeResponse(t, w).Error.Code)

	w = doJSON(router, http.MethodPost, "/auth/refresh", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	userID := uuid.New()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Minute)),
		},
		UserID:    userID.String(),
		TokenType: "access",
	}

	t.Run("revokes access and refresh token", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Logout", mock.Anything, mock.MatchedBy(func(in appidentity.LogoutInput) bool {
			return in.UserID == userID &&
				in.TokenJTI == "jti-1" &&
				in.TokenRemaining > 9*time.Minute &&
				in.RefreshToken == "refresh"
		})).Return(nil)

		w := doJSON(newAuthRouter(svc, userID, claims), http.MethodPost, "/auth/logout", LogoutRequest{RefreshToken: "refresh"})
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("empty body", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Logout", mock.Anything, mock.MatchedBy(func(in appidentity.LogoutInput) bool {
			return in.RefreshToken == "" && in.TokenJTI == "jti-1"
		})).Return(nil)

		w := doJSON(newAuthRouter(svc, userID, claims), http.MethodPost, "/auth/logout", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := new(MockAuthService)
		w := doJSON(newAuthRouter(svc, uuid.Nil, nil), http.MethodPost, "/auth/logout", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("RequestPasswordReset", mock.Anything, "ana@example.com").Return(nil)
	svc.On("ConfirmPasswordReset", mock.Anything, "good", "nova-senha").Return(nil)
	svc.On("ConfirmPasswordReset", mock.Anything, "stale", "nova-senha").Return(appidentity.ErrInvalidResetToken)
	router := newAuthRouter(svc, uuid.Nil, nil)

	w := doJSON(router, http.MethodPost, "/auth/password-reset", PasswordResetRequest{Email: "ana@example.com"})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/password-reset", PasswordResetRequest{Email: "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/password-reset/confirm", PasswordResetConfirmRequest{Token: "good", NewPassword: "nova-senha"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/password-reset/confirm", PasswordResetConfirmRequest{Token: "stale", NewPassword: "nova-senha"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidResetToken, decodeResponse(t, w).Error.Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	userID := uuid.New()
	svc := new(MockAuthService)
	svc.On("GetCurrentUser", mock.Anything, userID).Return(&appidentity.UserInfo{ID: userID, Email: "ana@example.com"}, nil)

	w := doJSON(newAuthRouter(svc, userID, nil), http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got appidentity.UserInfo
	decodeData(t, w, &got)
	assert.Equal(t, userID, got.ID)
}
