package loyalty

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pontos/backend/internal/domain/identity"
	"github.com/pontos/backend/internal/domain/loyalty"
	"github.com/pontos/backend/internal/domain/shared"
	"github.com/pontos/backend/internal/domain/shared/valueobject"
	"github.com/pontos/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type profileFixture struct {
	customers *MockCustomerRepository
	accounts  *MockAccountReader
	photos    PhotoStorage
	publisher *recordingPublisher
	service   *ProfileService
	user      *identity.User
}

func newProfileFixture(t *testing.T, photos PhotoStorage) *profileFixture {
	t.Helper()
	user, err := identity.NewUser("Ana@Example.com", "secret123", "Ana")
	require.NoError(t, err)

	f := &profileFixture{
		customers: new(MockCustomerRepository),
		accounts:  new(MockAccountReader),
		photos:    photos,
		publisher: &recordingPublisher{},
		user:      user,
	}
	f.accounts.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.service = NewProfileService(f.customers, f.accounts, photos, &passThroughTxManager{}, f.publisher, zap.NewNop())
	return f
}

func TestProfileService_Get(t *testing.T) {
	t.Run("stored record", func(t *testing.T) {
		f := newProfileFixture(t, nil)
		c := loyalty.NewCustomerWithID(f.user.ID)
		require.NoError(t, c.UpdateProfile("Ana Lima", "", f.user.Email, ""))
		f.customers.On("FindByID", mock.Anything, f.user.ID).Return(c, nil)

		got, err := f.service.Get(context.Background(), f.user.ID)
		require.NoError(t, err)
		assert.True(t, got.Exists)
		assert.Equal(t, "Ana Lima", got.Name)
		f.accounts.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("falls back to the account", func(t *testing.T) {
		f := newProfileFixture(t, nil)
		f.customers.On("FindByID", mock.Anything, f.user.ID).Return(nil, shared.ErrNotFound)

		got, err := f.service.Get(context.Background(), f.user.ID)
		require.NoError(t, err)
		assert.False(t, got.Exists)
		assert.Equal(t, "Ana", got.Name)
		assert.Equal(t, "ana@example.com", got.Email)
	})

	t.Run("repository failure", func(t *testing.T) {
		f := newProfileFixture(t, nil)
		f.customers.On("FindByID", mock.Anything, f.user.ID).Return(nil, errors.New("db down"))

		_, err := f.service.Get(context.Background(), f.user.ID)
		assert.Error(t, err)
	})
}

func TestProfileService_Update_CreatesRecordWithPhoto(t *testing.T) {
	photos := storage.NewMemoryObjectStorage("http://cdn.local/pontos")
	f := newProfileFixture(t, photos)
	ctx := context.Background()

	f.customers.On("FindByID", mock.Anything, f.user.ID).Return(nil, shared.ErrNotFound)
	f.customers.On("ExistsByCPFExcludingID", mock.Anything, validCPF, f.user.ID).Return(false, nil)
	f.customers.On("Save", mock.Anything, mock.MatchedBy(func(c *loyalty.Customer) bool {
		return c.ID == f.user.ID && c.CPF.String() == validCPF
	})).Return(nil)

	got, err := f.service.Update(ctx, f.user.ID, UpdateProfileInput{
		Name:  "Ana Lima",
		Phone: "11987654321",
		CPF:   validCPFMask,
		Photo: &PhotoUpload{Filename: "eu.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}},
	})
	require.NoError(t, err)

	key := "fotos_perfil/" + f.user.ID.String() + "/eu.jpg"
	assert.Equal(t, "http://cdn.local/pontos/"+key, got.PhotoURL)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, validCPFMask, got.FormattedCPF)
	assert.True(t, got.Exists)

	obj, ok := photos.Get(key)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", obj.ContentType)
	f.customers.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestProfileService_Update_KeepsStoredCPF(t *testing.T) {
	f := newProfileFixture(t, nil)
	existing := loyalty.NewCustomerWithID(f.user.ID)
	stored, err := valueobject.NewCPF(validCPF)
	require.NoError(t, err)
	require.NoError(t, existing.AssignCPF(stored))
	existing.PhotoURL = "http://cdn.local/old.jpg"

	f.customers.On("FindByID", mock.Anything, f.user.ID).Return(existing, nil)
	f.customers.On("SaveWithLock", mock.Anything, existing).Return(nil)

	got, err := f.service.Update(context.Background(), f.user.ID, UpdateProfileInput{Name: "Ana", CPF: otherValidCPF})
	require.NoError(t, err)
	assert.Equal(t, validCPF, got.CPF)
	assert.Equal(t, "http://cdn.local/old.jpg", got.PhotoURL)
	f.customers.AssertNotCalled(t, "ExistsByCPFExcludingID", mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileService_Update_CPFInUse(t *testing.T) {
	f := newProfileFixture(t, nil)
	f.customers.On("FindByID", mock.Anything, f.user.ID).Return(nil, shared.ErrNotFound)
	f.customers.On("ExistsByCPFExcludingID", mock.Anything, validCPF, f.user.ID).Return(true, nil)

	_, err := f.service.Update(context.Background(), f.user.ID, UpdateProfileInput{CPF: validCPF})
	assert.ErrorIs(t, err, loyalty.ErrCPFInUseByUser)
	assert.Equal(t, "Este CPF já está em uso por outra conta.", err.Error())
}

func TestProfileService_Update_UniqueIndexRace(t *testing.T) {
	f := newProfileFixture(t, nil)
	f.customers.On("FindByID", mock.Anything, f.user.ID).Return(nil, shared.ErrNotFound)
	f.customers.On("ExistsByCPFExcludingID", mock.Anything, validCPF, f.user.ID).Return(false, nil)
	f.customers.On("Save", mock.Anything, mock.Anything).Return(shared.ErrAlreadyExists)

	_, err := f.service.Update(context.Background(), f.user.ID, UpdateProfileInput{CPF: validCPF})
	assert.ErrorIs(t, err, loyalty.ErrCPFInUseByUser)
}

func TestProfileService_Update_Validation(t *testing.T) {
	f := newProfileFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Update(ctx, f.user.ID, UpdateProfileInput{CPF: "123"})
	assert.ErrorIs(t, err, loyalty.ErrCPFRequired)

	_, err = f.service.Update(ctx, f.user.ID, UpdateProfileInput{CPF: "00000000000"})
	assert.ErrorIs(t, err, loyalty.ErrInvalidCPF)

	_, err = f.service.Update(ctx, f.user.ID, UpdateProfileInput{CPF: validCPF, Photo: &PhotoUpload{Filename: "x.jpg"}})
	assert.ErrorIs(t, err, loyalty.ErrPhotoRequired)
}

func TestProfileService_Update_UploadFailure(t *testing.T) {
	photos := new(MockPhotoStorage)
	f := newProfileFixture(t, photos)
	photos.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket missing"))

	_, err := f.service.Update(context.Background(), f.user.ID, UpdateProfileInput{
		CPF:   validCPF,
		Photo: &PhotoUpload{Filename: "x.jpg", Data: []byte{1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket missing")
	f.customers.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestPhotoKey(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	prefix := "fotos_perfil/" + id.String() + "/"

	assert.Equal(t, prefix+"foto.png", PhotoKey(id, "foto.png"))
	assert.Equal(t, prefix+"passwd", PhotoKey(id, "../../etc/passwd"))
	assert.Equal(t, prefix+"a.jpg", PhotoKey(id, `C:\Users\ana\a.jpg`))
	assert.Equal(t, prefix+"foto", PhotoKey(id, ""))
}
