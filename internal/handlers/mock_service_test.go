package handlers

import (
	"context"
	"net/http"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	authUser      *models.User
	authErr       error
	changeErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastAuthUsername   string
	lastChange         [4]any
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
	changeCalls        int
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	m.lastAuthUsername = username
	return m.authUser, m.authErr
}
func (m *mockAuth) ChangePassword(ctx context.Context, userID int, current, newPassword, confirm string) error {
	m.changeCalls++
	m.lastChange = [4]any{userID, current, newPassword, confirm}
	return m.changeErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockSessions knows a fixed set of session ids.
type mockSessions struct {
	users      map[string]int
	resolveErr error
	beginID    string
	beginErr   error
	endErr     error

	ended []string
}

func (m *mockSessions) Begin(ctx context.Context, userID int) (models.Session, error) {
	if m.beginErr != nil {
		return models.Session{}, m.beginErr
	}
	return models.Session{ID: m.beginID, UserID: userID}, nil
}
func (m *mockSessions) Resolve(ctx context.Context, sessionID string) (int, error) {
	if m.resolveErr != nil {
		return 0, m.resolveErr
	}
	id, ok := m.users[sessionID]
	if !ok {
		return 0, service.ErrSessionNotFound
	}
	return id, nil
}
func (m *mockSessions) End(ctx context.Context, sessionID string) error {
	m.ended = append(m.ended, sessionID)
	return m.endErr
}

type mockCatalog struct {
	added     models.Product
	addErr    error
	available []models.Product
	owned     []models.Product
	listErr   error
	toggled   models.Product
	toggleErr error
	summary   models.CatalogSummary
	sumErr    error

	lastAdd       service.ProductParams
	lastAddUser   int
	lastOwnedUser int
	lastToggle    string
	lastProductID int
}

func (m *mockCatalog) AddProduct(ctx context.Context, userID int, p service.ProductParams) (models.Product, error) {
	m.lastAddUser = userID
	m.lastAdd = p
	return m.added, m.addErr
}
func (m *mockCatalog) ListAvailable(ctx context.Context) ([]models.Product, error) {
	return m.available, m.listErr
}
func (m *mockCatalog) ListOwned(ctx context.Context, userID int) ([]models.Product, error) {
	m.lastOwnedUser = userID
	return m.owned, m.listErr
}
func (m *mockCatalog) Buy(ctx context.Context, userID, productID int) (models.Product, error) {
	m.lastToggle = "buy"
	m.lastProductID = productID
	return m.toggled, m.toggleErr
}
func (m *mockCatalog) Return(ctx context.Context, userID, productID int) (models.Product, error) {
	m.lastToggle = "return"
	m.lastProductID = productID
	return m.toggled, m.toggleErr
}
func (m *mockCatalog) Summary(ctx context.Context) (models.CatalogSummary, error) {
	return m.summary, m.sumErr
}

type mockActivity struct {
	resp []models.ActivityEvent
	err  error
	last service.LogFilter
}

func (m *mockActivity) Record(ctx context.Context, e models.ActivityEvent) error { return nil }
func (m *mockActivity) List(ctx context.Context, f service.LogFilter) ([]models.ActivityEvent, error) {
	m.last = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, Options{})
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// sessionCookie returns the cookie a logged-in browser would send.
func sessionCookie(id string) *http.Cookie {
	return &http.Cookie{Name: sessionCookieName, Value: id}
}
