package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autoshop-backend/internal/auth"
	products "github.com/angelmondragon/autoshop-backend/internal/products"
	pkgauth "github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/config"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
	"github.com/angelmondragon/autoshop-backend/pkg/metrics"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

type stubProductService struct {
	created []products.CreateProductInput
}

func (s *stubProductService) CreateProduct(ctx context.Context, principal pkgauth.Principal, input products.CreateProductInput) (*products.ProductDTO, error) {
	s.created = append(s.created, input)
	return &products.ProductDTO{ID: uuid.New(), Name: input.Name, Cost: *input.Cost, SalePrice: *input.SalePrice}, nil
}

func (s *stubProductService) UpdateProduct(ctx context.Context, principal pkgauth.Principal, productID uuid.UUID, input products.UpdateProductInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: productID}, nil
}

func (s *stubProductService) GetProduct(ctx context.Context, productID uuid.UUID) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: productID, Name: "Brake pad", SalePrice: decimal.NewFromInt(40)}, nil
}

func (s *stubProductService) ListProducts(ctx context.Context, input products.ListProductsInput) (*products.ProductListResult, error) {
	return &products.ProductListResult{Items: []products.ProductDTO{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test"},
		JWT:     config.JWTConfig{Secret: "secret", Issuer: "autoshop", ExpirationMinutes: 60},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestRouter(t *testing.T, svc Services) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	registry := prometheus.NewRegistry()
	metrics.NewInventoryMetrics(registry)
	return NewRouter(cfg, logg, stubPinger{}, nil, registry, svc), cfg
}

func bearer(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	var entityID *uuid.UUID
	if role != enums.RoleAdmin {
		id := uuid.New()
		entityID = &id
	}
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		Role:     role,
		EntityID: entityID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthLive(t *testing.T) {
	router, _ := newTestRouter(t, Services{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Autoshop-Env"); got != "test" {
		t.Fatalf("unexpected env header %q", got)
	}
}

func TestHealthReadySkipsMissingRedis(t *testing.T) {
	router, _ := newTestRouter(t, Services{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestMetricsEndpointServesInventoryCounters(t *testing.T) {
	router, _ := newTestRouter(t, Services{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "low_stock_alerts_total") {
		t.Fatalf("expected inventory metrics in body")
	}
}

func TestLoginIsPublic(t *testing.T) {
	router, _ := newTestRouter(t, Services{Auth: stubAuthService{}})

	body := strings.NewReader(`{"email":"mechanic@shop.test","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 from the auth service got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "invalid credentials") {
		t.Fatalf("expected service error in body, got %s", resp.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t, Services{Products: &stubProductService{}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestProductCreateRoleGate(t *testing.T) {
	productSvc := &stubProductService{}
	router, cfg := newTestRouter(t, Services{Products: productSvc})
	payload := `{"name":"Oil filter","cost":"8.00","sale_price":"15.00","initial_stock":4}`

	cases := map[enums.Role]int{
		enums.RoleMechanic: http.StatusForbidden,
		enums.RoleCustomer: http.StatusForbidden,
		enums.RoleSupplier: http.StatusCreated,
		enums.RoleAdmin:    http.StatusCreated,
	}
	for role, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", bearer(t, cfg, role))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("role %s: expected %d got %d (%s)", role, want, resp.Code, resp.Body.String())
		}
	}
	if len(productSvc.created) != 2 {
		t.Fatalf("expected 2 creates to reach the service, got %d", len(productSvc.created))
	}
}

func TestAnyRoleCanReadProducts(t *testing.T) {
	router, cfg := newTestRouter(t, Services{Products: &stubProductService{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestStockMovementsAdminOnly(t *testing.T) {
	router, cfg := newTestRouter(t, Services{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/movements", strings.NewReader(`{}`))
	req.Header.Set("Authorization", bearer(t, cfg, enums.RoleMechanic))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("mechanic: expected 403 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/stock/movements", strings.NewReader(`{}`))
	req.Header.Set("Authorization", bearer(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("admin without stock service: expected 503 got %d", resp.Code)
	}
}

func TestNotificationsHiddenFromCustomers(t *testing.T) {
	router, cfg := newTestRouter(t, Services{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
