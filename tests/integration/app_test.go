package integration

import (
	"context"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	identityapp "github.com/pontos/backend/internal/application/identity"
	loyaltyapp "github.com/pontos/backend/internal/application/loyalty"
	"github.com/pontos/backend/internal/infrastructure/auth"
	"github.com/pontos/backend/internal/infrastructure/cache"
	"github.com/pontos/backend/internal/infrastructure/config"
	"github.com/pontos/backend/internal/infrastructure/email"
	"github.com/pontos/backend/internal/infrastructure/event"
	"github.com/pontos/backend/internal/infrastructure/persistence"
	"github.com/pontos/backend/internal/infrastructure/storage"
	"github.com/pontos/backend/internal/interfaces/http/handler"
	"github.com/pontos/backend/internal/interfaces/http/middleware"
	"github.com/pontos/backend/internal/interfaces/http/router"
	"github.com/pontos/backend/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// captureSender keeps outgoing mail in memory
type captureSender struct {
	mu   sync.Mutex
	sent []email.Message
}

func (s *captureSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

var resetTokenPattern = regexp.MustCompile(`token=([0-9a-f]{32})`)

func (s *captureSender) lastResetToken(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent)
	m := resetTokenPattern.FindStringSubmatch(s.sent[len(s.sent)-1].Text)
	require.Len(t, m, 2)
	return m[1]
}

type testApp struct {
	db       *TestDB
	client   *testutil.APIClient
	mailer   *captureSender
	recorder *testutil.RecordingHandler
	points   *loyaltyapp.PointsService
}

// newTestApp wires the full HTTP stack against a fresh database, with the
// in-memory key-value stores.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	tdb := NewTestDB(t)
	log := zap.NewNop()
	require.NoError(t, middleware.SetupValidator())

	blacklist := auth.NewInMemoryTokenBlacklist()
	resets := cache.NewInMemoryPasswordResetStore()
	idem := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() {
		_ = resets.Close()
		_ = idem.Close()
	})

	recorder := testutil.NewRecordingHandler()
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(recorder)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	customers := persistence.NewGormCustomerRepository(tdb.DB)
	transactions := persistence.NewGormPointsTransactionRepository(tdb.DB)
	users := persistence.NewGormUserRepository(tdb.DB)
	txManager := persistence.NewGormTransactionManager(tdb.DB)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "integration-secret-key-32-chars!!",
		RefreshSecret:          "integration-refresh-key-32-chars!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "pontos-test",
	})
	mailer := &captureSender{}
	authConfig := identityapp.DefaultAuthServiceConfig()
	authConfig.ResetURL = "http://pontos.local/redefinir-senha"
	authService := identityapp.NewAuthService(users, resets, jwtService, blacklist, mailer, bus, authConfig, log)

	pointsConfig := loyaltyapp.DefaultPointsServiceConfig()
	pointsConfig.MaxAttempts = 50
	pointsService := loyaltyapp.NewPointsService(customers, transactions, txManager, idem, bus, pointsConfig, log)
	customerService := loyaltyapp.NewCustomerService(customers, transactions, txManager, bus, 50, log)
	photos := storage.NewMemoryObjectStorage("http://localhost" + handler.PhotoRoutePrefix)
	profileService := loyaltyapp.NewProfileService(customers, users, photos, txManager, bus, log)

	engine, err := router.New(router.Options{
		HTTP: config.HTTPConfig{
			MaxBodySize:      1 << 20,
			CORSAllowOrigins: []string{"*"},
		},
		ServiceName: "pontos-test",
		Logger:      log,
		JWT: middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: blacklist,
			Logger:         log,
		},
	}, router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		CPF:       handler.NewCPFHandler(),
		Points:    handler.NewPointsHandler(pointsService),
		Customers: handler.NewCustomerHandler(customerService, pointsService),
		Profile:   handler.NewProfileHandler(profileService, 0),
		Health: handler.NewHealthHandler(handler.PingFunc(func(ctx context.Context) error {
			return tdb.SqlDB.PingContext(ctx)
		}), nil),
		Photos: handler.NewPhotoHandler(photos),
	})
	require.NoError(t, err)

	return &testApp{
		db:       tdb,
		client:   testutil.NewAPIClient(engine),
		mailer:   mailer,
		recorder: recorder,
		points:   pointsService,
	}
}

// signUp registers an account and returns its access token
func (a *testApp) signUp(t *testing.T, name, mail, password string) string {
	t.Helper()
	w := a.client.Do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": name, "email": mail, "password": password,
	})
	resp := testutil.DataAs[handler.AuthResponse](t, w, http.StatusCreated)
	require.NotEmpty(t, resp.Token.AccessToken)
	return resp.Token.AccessToken
}
