package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pos-service/internal/cart"
	"pos-service/internal/models"
	"pos-service/internal/service"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	terminal *service.TerminalService
	checkout *service.CheckoutService
	catalog  *service.CatalogService
	invoices *service.InvoiceService
	reports  *service.ReportService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	terminal *service.TerminalService,
	checkout *service.CheckoutService,
	catalog *service.CatalogService,
	invoices *service.InvoiceService,
	reports *service.ReportService,
) *Handler {
	return &Handler{
		terminal: terminal,
		checkout: checkout,
		catalog:  catalog,
		invoices: invoices,
		reports:  reports,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		terminals := v1.Group("/terminals/:terminalId")
		{
			terminals.GET("/cart", h.getCart)
			terminals.DELETE("/cart", h.clearCart)
			terminals.POST("/scan", h.scanBarcode)
			terminals.POST("/items", h.addItem)
			terminals.PATCH("/items/:lineId", h.updateItemQuantity)
			terminals.DELETE("/items/:lineId", h.removeItem)
			terminals.PUT("/customer", h.setCustomer)
			terminals.POST("/checkout", h.checkoutCart)
		}

		v1.GET("/products", h.listProducts)
		v1.POST("/products", h.createProduct)
		v1.PUT("/products/:id", h.updateProduct)
		v1.DELETE("/products/:id", h.deactivateProduct)

		v1.GET("/categories", h.listCategories)
		v1.POST("/categories", h.createCategory)

		v1.GET("/suppliers", h.listSuppliers)
		v1.POST("/suppliers", h.createSupplier)

		v1.GET("/customers", h.listCustomers)
		v1.POST("/customers", h.createCustomer)

		v1.GET("/sales", h.listSales)
		v1.GET("/sales/:id", h.getSale)
		v1.POST("/sales/:id/refund", h.refundSale)

		v1.GET("/invoices", h.listInvoices)
		v1.POST("/invoices", h.createInvoice)
		v1.GET("/invoices/:id", h.getInvoice)
		v1.POST("/invoices/:id/approve", h.approveInvoice)
		v1.POST("/invoices/:id/process", h.processInvoice)

		v1.GET("/reports/sales", h.salesReport)
		v1.GET("/reports/dashboard", h.dashboardStats)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

type scanRequest struct {
	Barcode  string `json:"barcode" binding:"required"`
	Quantity int    `json:"quantity"`
}

// scanBarcode resolves a barcode and adds the product to the terminal cart
func (h *Handler) scanBarcode(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := h.terminal.ScanBarcode(c.Request.Context(), c.Param("terminalId"), req.Barcode, req.Quantity)
	if err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type addItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

// addItem adds a product to the cart by identifier
func (h *Handler) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := h.terminal.AddProduct(c.Request.Context(), c.Param("terminalId"), req.ProductID, req.Quantity)
	if err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// updateItemQuantity sets a line's quantity; zero removes the line
func (h *Handler) updateItemQuantity(c *gin.Context) {
	lineID, err := strconv.ParseInt(c.Param("lineId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid line ID"})
		return
	}

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.terminal.UpdateQuantity(c.Param("terminalId"), lineID, req.Quantity)
	if err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// removeItem removes a line from the cart
func (h *Handler) removeItem(c *gin.Context) {
	lineID, err := strconv.ParseInt(c.Param("lineId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid line ID"})
		return
	}

	view, err := h.terminal.RemoveLine(c.Param("terminalId"), lineID)
	if err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type setCustomerRequest struct {
	Phone string `json:"phone"`
}

// setCustomer attaches the optional customer phone to the cart
func (h *Handler) setCustomer(c *gin.Context) {
	var req setCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.terminal.SetCustomerPhone(c.Param("terminalId"), req.Phone); err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.terminal.View(c.Param("terminalId")))
}

// getCart returns the terminal's cart snapshot
func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.terminal.View(c.Param("terminalId")))
}

// clearCart cancels the in-progress transaction
func (h *Handler) clearCart(c *gin.Context) {
	h.terminal.ClearCart(c.Param("terminalId"))
	c.JSON(http.StatusOK, h.terminal.View(c.Param("terminalId")))
}

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	CashierID     string `json:"cashier_id" binding:"required"`
}

// checkoutCart finalizes the terminal's cart into a sale
func (h *Handler) checkoutCart(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sale, err := h.checkout.Checkout(c.Request.Context(), &service.CheckoutRequest{
		TerminalID:    c.Param("terminalId"),
		PaymentMethod: req.PaymentMethod,
		CashierID:     req.CashierID,
	})
	if err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// listProducts returns all active products
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// createProduct creates a product
func (h *Handler) createProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.catalog.CreateProduct(c.Request.Context(), &product); err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// updateProduct updates a product
func (h *Handler) updateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		badRequest(c, err)
		return
	}
	product.ID = id

	if err := h.catalog.UpdateProduct(c.Request.Context(), &product); err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// deactivateProduct soft-deletes a product
func (h *Handler) deactivateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	if err := h.catalog.DeactivateProduct(c.Request.Context(), id); err != nil {
		domainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listCategories returns all categories
func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// createCategory creates a category
func (h *Handler) createCategory(c *gin.Context) {
	var category models.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.catalog.CreateCategory(c.Request.Context(), &category); err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// listSuppliers returns all suppliers
func (h *Handler) listSuppliers(c *gin.Context) {
	suppliers, err := h.catalog.ListSuppliers(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

// createSupplier creates a supplier
func (h *Handler) createSupplier(c *gin.Context) {
	var supplier models.Supplier
	if err := c.ShouldBindJSON(&supplier); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.catalog.CreateSupplier(c.Request.Context(), &supplier); err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

// listCustomers returns all customers
func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.catalog.ListCustomers(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

// createCustomer creates a customer
func (h *Handler) createCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.catalog.CreateCustomer(c.Request.Context(), &customer); err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// listSales returns sales for ?from=RFC3339&to=RFC3339
func (h *Handler) listSales(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' timestamp"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' timestamp"})
		return
	}

	sales, err := h.checkout.ListSales(c.Request.Context(), from, to)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

// getSale returns a sale with its items
func (h *Handler) getSale(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sale ID"})
		return
	}

	sale, items, err := h.checkout.GetSale(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sale": sale, "items": items})
}

// refundSale refunds a completed sale and restocks its items
func (h *Handler) refundSale(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sale ID"})
		return
	}

	if err := h.checkout.RefundSale(c.Request.Context(), id); err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refunded"})
}

// listInvoices returns invoices, optionally filtered by ?status=
func (h *Handler) listInvoices(c *gin.Context) {
	invoices, err := h.invoices.ListInvoices(c.Request.Context(), c.Query("status"))
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// createInvoice records a pending purchase invoice
func (h *Handler) createInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	invoice, err := h.invoices.CreateInvoice(c.Request.Context(), &req)
	if err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

// getInvoice returns an invoice with its items
func (h *Handler) getInvoice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	invoice, items, err := h.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice, "items": items})
}

type approveInvoiceRequest struct {
	ApprovedBy string `json:"approved_by" binding:"required"`
}

// approveInvoice approves a pending invoice and applies its stock updates
func (h *Handler) approveInvoice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	var req approveInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.invoices.ApproveInvoice(c.Request.Context(), id, req.ApprovedBy); err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

// processInvoice marks an approved invoice processed
func (h *Handler) processInvoice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	if err := h.invoices.MarkProcessed(c.Request.Context(), id); err != nil {
		domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

// salesReport builds a report for ?from=RFC3339&to=RFC3339
func (h *Handler) salesReport(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' timestamp"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' timestamp"})
		return
	}

	report, err := h.reports.SalesReport(c.Request.Context(), from, to)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// dashboardStats returns the landing dashboard figures
func (h *Handler) dashboardStats(c *gin.Context) {
	stats, err := h.reports.DashboardStats(c.Request.Context(), time.Now())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Operation failed",
		"details": err.Error(),
	})
}

// domainError maps domain errors to HTTP status codes
func domainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, cart.ErrCartEmpty), errors.Is(err, service.ErrInvalidPaymentMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, cart.ErrLineNotFound), errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrOutOfStock), errors.Is(err, cart.ErrCartFinalizing),
		errors.Is(err, store.ErrInsufficientStock), errors.Is(err, service.ErrInvalidInvoiceState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		internalError(c, err)
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
