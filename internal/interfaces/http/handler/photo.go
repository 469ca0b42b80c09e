package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pontos/backend/internal/infrastructure/storage"
)

// PhotoRoutePrefix is where in-memory photos are served
const PhotoRoutePrefix = "/fotos"

// PhotoReader looks up stored photo bytes by object key
type PhotoReader interface {
	Get(key string) (storage.StoredObject, bool)
}

// PhotoHandler serves photos kept by the in-memory object store.
// With S3 enabled photo URLs point at the bucket instead.
type PhotoHandler struct {
	BaseHandler
	photos PhotoReader
}

// NewPhotoHandler creates a photo handler
func NewPhotoHandler(photos PhotoReader) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

// Get writes the stored bytes under their upload content type
func (h *PhotoHandler) Get(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	obj, ok := h.photos.Get(key)
	if key == "" || !ok {
		h.NotFound(c, "Photo not found")
		return
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(obj.Data)
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, contentType, obj.Data)
}
