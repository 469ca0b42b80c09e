package loyalty

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/identity"
)

// PhotoFolder is the object storage prefix for profile photos
const PhotoFolder = "fotos_perfil"

// PhotoStorage stores profile photos and returns their download URL
type PhotoStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// AccountReader looks up the account that owns a profile
type AccountReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// PhotoKey returns fotos_perfil/{uid}/{filename}. The filename is reduced
// to its base name so clients cannot escape the user's folder.
func PhotoKey(userID uuid.UUID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		name = "foto"
	}
	return PhotoFolder + "/" + userID.String() + "/" + name
}
