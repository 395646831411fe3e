package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-retail-ws/internal/middleware"
	"go-retail-ws/internal/model"
	"go-retail-ws/internal/repository"
	"go-retail-ws/internal/service"
	"go-retail-ws/internal/testutil"
	"go-retail-ws/pkg/apperror"
	"go-retail-ws/pkg/cache"
	"go-retail-ws/pkg/config"
	"go-retail-ws/pkg/jwt"
	"go-retail-ws/pkg/logger"
	"go-retail-ws/pkg/metrics"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorBody      `json:"error"`
}

type testServer struct {
	t     *testing.T
	app   *fiber.App
	svc   Services
	token string
}

func newServer(t *testing.T, store cache.IdempotencyStore) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	conn := db.DB()
	log := logger.Nop()
	reg := prometheus.NewRegistry()
	hooks := service.Hooks{Metrics: metrics.New(reg), Log: log}

	products := repository.NewProductRepo(conn)
	inventory := repository.NewInventoryRepo(conn)
	customers := repository.NewCustomerRepo(conn)
	orders := repository.NewOrderRepo(conn)
	returns := repository.NewReturnRepo(conn)
	ledger := repository.NewLedgerRepo(conn)
	reports := repository.NewReportRepo(conn)
	staff := repository.NewStaffRepo(conn)

	svc := Services{
		Auth:      service.NewAuthService(staff, jwt.NewManager("test-secret", "go-retail-ws", time.Hour), hooks),
		Staff:     service.NewStaffService(staff, hooks),
		Products:  service.NewProductService(db, products, inventory, 10, hooks),
		Inventory: service.NewInventoryService(db, products, inventory, hooks),
		Customers: service.NewCustomerService(customers, hooks),
		Orders:    service.NewOrderService(db, orders, customers, products, inventory, ledger, hooks),
		Returns:   service.NewReturnService(db, returns, orders, products, inventory, ledger, hooks),
		Financial: service.NewFinancialService(db, ledger, orders, hooks),
		Reports:   service.NewReportService(reports, hooks),
		Dashboard: service.NewDashboardService(reports, inventory),
	}

	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(log, false)})
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	Register(app, RouterConfig{
		Services:       svc,
		Log:            log,
		Store:          store,
		IdempotencyTTL: time.Hour,
		Gatherer:       reg,
		Health: func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok"})
		},
	})

	_, err := svc.Staff.EnsureAdmin(context.Background(), config.SeedConfig{
		AdminEmail: "admin@example.com", AdminPassword: "admin1234", AdminName: "Admin",
	})
	require.NoError(t, err)

	s := &testServer{t: t, app: app, svc: svc}
	s.token = s.login("admin@example.com", "admin1234")
	return s
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	status, env := s.do(fiber.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, fiber.StatusOK, status, env.Message)
	var resp service.LoginResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &resp))
	return resp.Token
}

func (s *testServer) request(method, path, token string, body any, headers map[string]string) (int, []byte, map[string]string) {
	s.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp.StatusCode, raw, map[string]string{
		middleware.HeaderReplayed: resp.Header.Get(middleware.HeaderReplayed),
		fiber.HeaderXRequestID:    resp.Header.Get(fiber.HeaderXRequestID),
	}
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	status, raw, _ := s.request(method, path, token, body, nil)
	var env envelope
	require.NoError(s.t, json.Unmarshal(raw, &env), string(raw))
	return status, env
}

func (s *testServer) createProduct(sku string, stock int) uuid.UUID {
	s.t.Helper()
	status, env := s.do(fiber.MethodPost, "/api/products", s.token, map[string]any{
		"sku": sku, "name": "Widget " + sku, "category": "tools",
		"price": "10.00", "cost_price": "6.00", "initial_stock": stock,
	})
	require.Equal(s.t, fiber.StatusCreated, status, env.Message)
	var p struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &p))
	return p.ID
}

func (s *testServer) stockOf(id uuid.UUID) int {
	s.t.Helper()
	status, env := s.do(fiber.MethodGet, "/api/products/"+id.String(), s.token, nil)
	require.Equal(s.t, fiber.StatusOK, status)
	var p struct {
		StockLevel int `json:"stock_level"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &p))
	return p.StockLevel
}

func TestLoginEnvelope(t *testing.T) {
	s := newServer(t, nil)
	assert.NotEmpty(t, s.token)

	status, env := s.do(fiber.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@example.com", "password": "nope-nope"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperror.CodeUnauthorized, env.Error.Code)
	assert.Empty(t, env.Error.Trace)

	status, env = s.do(fiber.MethodGet, "/api/auth/me", s.token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), "admin@example.com")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newServer(t, nil)

	status, env := s.do(fiber.MethodGet, "/api/products", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, apperror.CodeUnauthorized, env.Error.Code)

	status, _ = s.do(fiber.MethodGet, "/api/products", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestPrivilegesGuardWrites(t *testing.T) {
	s := newServer(t, nil)
	status, env := s.do(fiber.MethodPost, "/api/staff", s.token, map[string]string{
		"email": "cashier@example.com", "password": "password1", "full_name": "Cash", "role": model.RoleCashier,
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	cashier := s.login("cashier@example.com", "password1")

	status, _ = s.do(fiber.MethodGet, "/api/products", cashier, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = s.do(fiber.MethodPost, "/api/products", cashier, map[string]any{"sku": "X", "name": "X", "category": "c"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, apperror.CodeForbidden, env.Error.Code)

	status, _ = s.do(fiber.MethodGet, "/api/staff", cashier, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestProductErrorsMapToStatus(t *testing.T) {
	s := newServer(t, nil)
	id := s.createProduct("SKU-1", 5)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   apperror.Code
	}{
		{"duplicate sku", fiber.MethodPost, "/api/products", map[string]any{"sku": "SKU-1", "name": "Again", "category": "tools"}, fiber.StatusConflict, apperror.CodeConflict},
		{"missing fields", fiber.MethodPost, "/api/products", map[string]any{"sku": "SKU-2"}, fiber.StatusBadRequest, apperror.CodeValidation},
		{"malformed json", fiber.MethodPost, "/api/products", `{"sku":`, fiber.StatusBadRequest, apperror.CodeValidation},
		{"bad id", fiber.MethodGet, "/api/products/not-a-uuid", nil, fiber.StatusBadRequest, apperror.CodeValidation},
		{"unknown id", fiber.MethodGet, "/api/products/" + uuid.NewString(), nil, fiber.StatusNotFound, apperror.CodeNotFound},
		{"negative stock", fiber.MethodPost, "/api/inventory/adjust", map[string]any{"product_id": id, "quantity_change": -6, "adjustment_reason": "count"}, fiber.StatusBadRequest, apperror.CodeInvariantViolation},
		{"unknown report", fiber.MethodGet, "/api/financial/report?reportType=balance_sheet", nil, fiber.StatusBadRequest, apperror.CodeValidation},
		{"bad date", fiber.MethodGet, "/api/financial/summary?startDate=yesterday", nil, fiber.StatusBadRequest, apperror.CodeValidation},
		{"bad days", fiber.MethodGet, "/api/dashboard/stock-movement?days=week", nil, fiber.StatusBadRequest, apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(tt.method, tt.path, s.token, tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}

	assert.Equal(t, 5, s.stockOf(id))
}

func TestInventoryFlowOverHTTP(t *testing.T) {
	s := newServer(t, nil)
	id := s.createProduct("SKU-1", 5)

	status, env := s.do(fiber.MethodPost, "/api/inventory/adjust", s.token, map[string]any{
		"product_id": id, "quantity_change": -3, "adjustment_reason": "damage",
	})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var result service.StockResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.StockLevel)

	status, env = s.do(fiber.MethodGet, "/api/inventory/"+id.String()+"/audit?page_size=1", s.token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var page struct {
		Items []model.InventoryAudit `json:"items"`
		Meta  PageMeta               `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(2), page.Meta.Total)
	assert.Equal(t, 1, page.Meta.PageSize)
}

func TestBatchIdempotency(t *testing.T) {
	store := testutil.NewMemoryStore()
	s := newServer(t, store)
	id := s.createProduct("SKU-1", 0)

	batch := map[string]any{"product_id": id, "batch_number": "B-1", "quantity": 4, "cost_per_unit": "5.00"}
	key := map[string]string{middleware.HeaderIdempotencyKey: "batch-b1"}

	status, first, headers := s.request(fiber.MethodPost, "/api/inventory/batch", s.token, batch, key)
	require.Equal(t, fiber.StatusCreated, status, string(first))
	assert.Empty(t, headers[middleware.HeaderReplayed])
	assert.NotEmpty(t, headers[fiber.HeaderXRequestID])

	status, second, headers := s.request(fiber.MethodPost, "/api/inventory/batch", s.token, batch, key)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "true", headers[middleware.HeaderReplayed])
	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, 4, s.stockOf(id))

	batch["quantity"] = 5
	status, raw, _ := s.request(fiber.MethodPost, "/api/inventory/batch", s.token, batch, key)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Contains(t, string(raw), string(apperror.CodeIdempotency))
	assert.Equal(t, 4, s.stockOf(id))

	// Without the header the duplicate batch number is its own error.
	batch["quantity"] = 4
	status, env := s.do(fiber.MethodPost, "/api/inventory/batch", s.token, batch)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, apperror.CodeConflict, env.Error.Code)
}

func TestOrderPaymentOverHTTP(t *testing.T) {
	s := newServer(t, nil)
	id := s.createProduct("SKU-1", 10)

	status, env := s.do(fiber.MethodPost, "/api/customers", s.token, map[string]string{"name": "Ana", "email": "ana@example.com"})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var customer model.Customer
	require.NoError(t, json.Unmarshal(env.Data, &customer))

	status, env = s.do(fiber.MethodPost, "/api/orders", s.token, map[string]any{
		"customer_id": customer.ID,
		"items":       []map[string]any{{"product_id": id, "quantity": 2}},
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var order model.CustomerOrder
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Equal(t, 8, s.stockOf(id))

	status, env = s.do(fiber.MethodPost, "/api/financial/transactions", s.token, map[string]any{
		"order_id": order.ID, "amount": "20.00", "transaction_type": "SALE", "payment_method": "cash",
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	status, env = s.do(fiber.MethodGet, "/api/orders/"+order.ID.String(), s.token, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, model.PaymentPaid, order.PaymentStatus)

	status, env = s.do(fiber.MethodGet, "/api/orders?customer_id=nope", s.token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, apperror.CodeValidation, env.Error.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t, nil)

	status, raw, _ := s.request(fiber.MethodGet, "/healthz", "", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))

	s.createProduct("SKU-1", 1)
	status, raw, _ = s.request(fiber.MethodGet, "/metrics", "", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), "retail_operations_total")
}

func TestErrorHandlerHidesInternals(t *testing.T) {
	boom := errors.New("dial tcp 10.0.0.1:3306: connection refused")
	for _, dev := range []bool{false, true} {
		app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(logger.Nop(), dev)})
		app.Get("/boom", func(c *fiber.Ctx) error { return boom })
		app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		var env envelope
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
		assert.Equal(t, apperror.CodeInternal, env.Error.Code)
		if dev {
			assert.Contains(t, env.Error.Trace, "connection refused")
		} else {
			assert.Equal(t, "internal server error", env.Message)
			assert.Empty(t, env.Error.Trace)
		}

		resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/teapot", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	}
}
