package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apployalty "github.com/pontos/backend/internal/application/loyalty"
	"github.com/pontos/backend/internal/interfaces/http/dto"
)

// DefaultMaxPhotoBytes caps a profile photo upload when no limit is configured
const DefaultMaxPhotoBytes = 5 << 20

// ProfileService is the account holder's own customer record
type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (*apployalty.ProfileDTO, error)
	Update(ctx context.Context, userID uuid.UUID, input apployalty.UpdateProfileInput) (*apployalty.ProfileDTO, error)
}

// UpdateProfileRequest carries the editable profile fields. It binds from
// JSON or from the fields of a multipart form.
// @name HandlerUpdateProfileRequest
type UpdateProfileRequest struct {
	Name  string `json:"name" form:"name" binding:"omitempty,max=200" example:"Ana Lima"`
	Phone string `json:"phone" form:"phone" binding:"omitempty,max=20" example:"(11) 98765-4321"`
	CPF   string `json:"cpf" form:"cpf" example:"529.982.247-25"`
}

// ProfileHandler handles the signed-in account's profile
type ProfileHandler struct {
	BaseHandler
	profileService ProfileService
	maxPhotoBytes  int64
}

// NewProfileHandler creates a new profile handler. A non-positive
// maxPhotoBytes falls back to DefaultMaxPhotoBytes.
func NewProfileHandler(profileService ProfileService, maxPhotoBytes int64) *ProfileHandler {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = DefaultMaxPhotoBytes
	}
	return &ProfileHandler{profileService: profileService, maxPhotoBytes: maxPhotoBytes}
}

// Get godoc
// @ID           getProfile
// @Summary      My profile
// @Description  Returns the customer record of the signed-in account. When none exists yet the account name and email are returned with exists=false.
// @Tags         profile
// @Produce      json
// @Success      200 {object} APIResponse[apployalty.ProfileDTO]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	profile, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// Update godoc
// @ID           updateProfile
// @Summary      Edit my profile
// @Description  Saves name, phone and CPF, with an optional photo. The CPF can be set only once.
// @Tags         profile
// @Accept       multipart/form-data
// @Accept       json
// @Produce      json
// @Param        name formData string false "Name"
// @Param        phone formData string false "Phone"
// @Param        cpf formData string true "CPF"
// @Param        photo formData file false "Profile photo"
// @Success      200 {object} APIResponse[apployalty.ProfileDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BindError(c, err)
		return
	}

	input := apployalty.UpdateProfileInput{
		Name:  req.Name,
		Phone: req.Phone,
		CPF:   req.CPF,
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		photo, err := readPhoto(c, h.maxPhotoBytes)
		if err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidPhoto, "Arquivo de foto inválido.")
			return
		}
		input.Photo = photo
	}

	profile, err := h.profileService.Update(c.Request.Context(), userID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

var errPhotoTooLarge = errors.New("photo exceeds size limit")

// readPhoto returns the optional "photo" part, or nil when none was sent
func readPhoto(c *gin.Context, maxBytes int64) (*apployalty.PhotoUpload, error) {
	header, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if header.Size > maxBytes {
		return nil, errPhotoTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, errPhotoTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errors.New("photo is not an image")
	}

	return &apployalty.PhotoUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
