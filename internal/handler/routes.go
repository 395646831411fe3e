package handler

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-retail-ws/internal/middleware"
	"go-retail-ws/internal/model"
	"go-retail-ws/internal/service"
	"go-retail-ws/internal/ws"
	"go-retail-ws/pkg/cache"
	"go-retail-ws/pkg/logger"
)

// Services bundles everything the HTTP layer talks to.
type Services struct {
	Auth      service.AuthService
	Staff     service.StaffService
	Products  service.ProductService
	Inventory service.InventoryService
	Customers service.CustomerService
	Orders    service.OrderService
	Returns   service.ReturnService
	Financial service.FinancialService
	Reports   service.ReportService
	Dashboard service.DashboardService
}

type RouterConfig struct {
	Services Services
	Log      *logger.Logger

	// Idempotency replay is disabled when Store is nil.
	Store          cache.IdempotencyStore
	IdempotencyTTL time.Duration

	// Optional extras; each route is skipped when its dependency is nil.
	Hub      *ws.Hub
	Gatherer prometheus.Gatherer
	Health   func(c *fiber.Ctx) error
}

// Register mounts every route on app.
func Register(app *fiber.App, cfg RouterConfig) {
	s := cfg.Services
	authH := NewAuthHandler(s.Auth)
	staffH := NewStaffHandler(s.Staff)
	productH := NewProductHandler(s.Products)
	invH := NewInventoryHandler(s.Inventory)
	customerH := NewCustomerHandler(s.Customers)
	orderH := NewOrderHandler(s.Orders)
	returnH := NewReturnHandler(s.Returns)
	finH := NewFinancialHandler(s.Financial, s.Reports)
	dashH := NewDashboardHandler(s.Dashboard)

	requireAuth := middleware.RequireAuth(s.Auth, cfg.Log)
	idem := middleware.Idempotency(cfg.Store, cfg.IdempotencyTTL, cfg.Log)
	can := middleware.RequirePrivilege

	api := app.Group("/api")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authH.Login)
	auth.Post("/reset-password", authH.ResetPassword)
	auth.Get("/me", requireAuth, authH.Me)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	// Staff
	protected.Get("/staff", can(model.PrivStaffView), staffH.GetStaff)
	protected.Get("/staff/privileges", can(model.PrivStaffView), staffH.GetPrivileges)
	protected.Get("/staff/:id", can(model.PrivStaffView), staffH.GetStaffMember)
	protected.Post("/staff", can(model.PrivStaffManage), staffH.CreateStaff)
	protected.Put("/staff/:id", can(model.PrivStaffManage), staffH.UpdateStaff)

	// Products
	protected.Get("/products", can(model.PrivProductView), productH.GetProducts)
	protected.Get("/products/:id", can(model.PrivProductView), productH.GetProduct)
	protected.Post("/products", can(model.PrivProductManage), productH.CreateProduct)
	protected.Put("/products/:id", can(model.PrivProductManage), productH.UpdateProduct)
	protected.Delete("/products/:id", can(model.PrivProductManage), productH.DeleteProduct)

	// Inventory
	protected.Get("/inventory", can(model.PrivInventoryView), invH.GetInventory)
	protected.Get("/inventory/low-stock", can(model.PrivInventoryView), invH.GetLowStock)
	protected.Get("/inventory/:productId/batches", can(model.PrivInventoryView), invH.GetBatches)
	protected.Get("/inventory/:productId/audit", can(model.PrivInventoryView), invH.GetAudit)
	protected.Post("/inventory/batch", can(model.PrivInventoryAdjust), idem, invH.AddBatch)
	protected.Post("/inventory/adjust", can(model.PrivInventoryAdjust), invH.AdjustInventory)

	// Customers
	protected.Get("/customers", can(model.PrivCustomerView), customerH.GetCustomers)
	protected.Get("/customers/:id", can(model.PrivCustomerView), customerH.GetCustomer)
	protected.Post("/customers", can(model.PrivCustomerManage), customerH.CreateCustomer)

	// Orders
	protected.Get("/orders", can(model.PrivOrderView), orderH.GetOrders)
	protected.Get("/orders/:id", can(model.PrivOrderView), orderH.GetOrder)
	protected.Post("/orders", can(model.PrivOrderCreate), idem, orderH.CreateOrder)
	protected.Patch("/orders/:id/delivery", can(model.PrivOrderUpdate), orderH.UpdateDeliveryStatus)
	protected.Post("/orders/:id/payment-status/refresh", can(model.PrivOrderUpdate), orderH.RefreshPaymentStatus)

	// Returns
	protected.Get("/returns", can(model.PrivReturnView), returnH.GetReturns)
	protected.Get("/returns/:id", can(model.PrivReturnView), returnH.GetReturn)
	protected.Post("/returns", can(model.PrivReturnCreate), idem, returnH.CreateReturn)
	protected.Patch("/returns/:id/process", can(model.PrivReturnProcess), returnH.ProcessReturn)
	protected.Patch("/returns/:id/complete", can(model.PrivReturnProcess), returnH.CompleteReturn)

	// Financial
	fin := protected.Group("/financial")
	fin.Get("/transactions", can(model.PrivFinancialView), finH.GetTransactions)
	fin.Post("/transactions", can(model.PrivFinancialRecord), idem, finH.RecordTransaction)
	fin.Get("/accounts", can(model.PrivFinancialView), finH.GetAccounts)
	fin.Get("/accounts/:id", can(model.PrivFinancialView), finH.GetAccount)
	fin.Post("/accounts", can(model.PrivFinancialManage), finH.CreateAccount)
	fin.Get("/expenses", can(model.PrivFinancialView), finH.GetExpenses)
	fin.Post("/expenses", can(model.PrivFinancialManage), finH.RecordExpense)
	fin.Get("/summary", can(model.PrivFinancialView), finH.GetSummary)
	fin.Get("/report", can(model.PrivFinancialView), finH.GetReport)

	// Dashboard
	protected.Get("/dashboard/stats", can(model.PrivDashboardView), dashH.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", can(model.PrivDashboardView), dashH.GetStockMovement)
	protected.Get("/dashboard/low-stock", can(model.PrivDashboardView), dashH.GetLowStock)

	if cfg.Health != nil {
		app.Get("/healthz", cfg.Health)
	}
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	if cfg.Hub != nil {
		registerWebSocket(app, cfg.Hub)
	}
}

func registerWebSocket(app *fiber.App, hub *ws.Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		hub.Register <- c
		defer func() { hub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
