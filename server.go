package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"bitbucket.org/surdata/pedidos_backend/cache"
	"bitbucket.org/surdata/pedidos_backend/config"
	"bitbucket.org/surdata/pedidos_backend/middlewares"
	"bitbucket.org/surdata/pedidos_backend/models"
	"bitbucket.org/surdata/pedidos_backend/snapshot"
	"bitbucket.org/surdata/pedidos_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

var (
	providerCache *cache.ProviderCache

	engineOnce sync.Once
	engine     *snapshot.Engine
)

// getEngine builds the snapshot engine on first use. The readiness gate
// guarantees the DB is connected before any handler reaches this.
func getEngine() *snapshot.Engine {
	engineOnce.Do(func() {
		store := snapshot.NewGormStore(config.GetDB())
		engine = snapshot.NewEngine(store, config.GetLogger(), providerCache)
	})
	return engine
}

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

// weekdayNames covers the day values the UI sends, in English and Spanish.
var weekdayNames = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
	"lunes": true, "martes": true, "miercoles": true, "miércoles": true,
	"jueves": true, "viernes": true, "sabado": true, "sábado": true, "domingo": true,
}

func registerCustomValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
			return weekdayNames[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
		})
	}
}

func scopeFromRequest(c *gin.Context) snapshot.Scope {
	tenantId, _ := utils.GetTenantIdFromContext(c.Request.Context())
	branchId, _ := utils.GetBranchIdFromContext(c.Request.Context())
	return snapshot.Scope{TenantId: tenantId, BranchId: branchId}
}

/* Providers */

func listProvidersHandler(c *gin.Context) {
	providers, err := models.GetProviders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, providers)
}

func getProviderHandler(c *gin.Context) {
	provider, err := models.GetProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "provider not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, provider)
}

func createProviderHandler(c *gin.Context) {
	var input models.NewProvider
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	provider, err := models.CreateProvider(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, provider)
}

func updateProviderHandler(c *gin.Context) {
	var input models.NewProvider
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	provider, err := models.UpdateProvider(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "provider not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, provider)
}

func deleteProviderHandler(c *gin.Context) {
	provider, err := models.DeleteProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "provider not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, provider)
}

/* Weeks */

type ensureWeekRequest struct {
	Date time.Time `json:"date" binding:"required"`
}

func ensureWeekHandler(c *gin.Context) {
	var req ensureWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	week, err := models.EnsureWeek(c.Request.Context(), req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, week)
}

func includeProviderInWeekHandler(c *gin.Context) {
	err := models.IncludeProviderInWeek(c.Request.Context(), c.Param("id"), c.Param("providerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func excludeProviderFromWeekHandler(c *gin.Context) {
	err := models.ExcludeProviderFromWeek(c.Request.Context(), c.Param("id"), c.Param("providerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type weekStatusRequest struct {
	Status models.WeekProviderStatus `json:"status" binding:"required"`
}

func setWeekProviderStatusHandler(c *gin.Context) {
	var req weekStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	err := models.SetWeekProviderStatus(c.Request.Context(), c.Param("id"), c.Param("providerId"), req.Status)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "week state not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func listWeekProvidersHandler(c *gin.Context) {
	providers, err := models.GetWeekProviders(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, providers)
}

/* Orders */

func createOrderHandler(c *gin.Context) {
	var input models.NewOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	order, err := models.CreateOrder(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, order)
}

func listOrderItemsHandler(c *gin.Context) {
	items, err := models.GetOrderItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func addOrderSnapshotHandler(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a json payload"})
		return
	}
	snap, err := models.AddOrderSnapshot(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func setOrderUiStateHandler(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a json payload"})
		return
	}
	if err := models.SetOrderUiState(c.Request.Context(), c.Param("id"), body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func recomputeSummaryHandler(c *gin.Context) {
	summary, err := models.RecomputeOrderSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

/* Settings */

func getSalesSourceHandler(c *gin.Context) {
	value, err := models.GetSalesSource(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if value == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sales source not configured"})
		return
	}
	c.Data(http.StatusOK, "application/json", value)
}

func setSalesSourceHandler(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a json payload"})
		return
	}
	if err := models.SetSalesSource(c.Request.Context(), body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

/* Scope operations */

func exportScopeHandler(c *gin.Context) {
	doc, err := getEngine().ExportScope(c.Request.Context(), scopeFromRequest(c), "export")
	if err != nil {
		if errors.Is(err, snapshot.ErrNoProviders) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, doc)
}

func importScopeHandler(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}
	opts := snapshot.ImportOptions{
		BackupDestination: strings.EqualFold(c.Query("backup"), "true"),
	}
	result, err := getEngine().ImportData(c.Request.Context(), body, scopeFromRequest(c), opts)
	if err != nil {
		var pe *snapshot.ParseError
		if errors.As(err, &pe) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type copyScopeRequest struct {
	DestTenantId string `json:"dest_tenant_id" binding:"required"`
	DestBranchId string `json:"dest_branch_id" binding:"required"`
	BackupSource bool   `json:"backup_source"`
}

func copyScopeHandler(c *gin.Context) {
	var req copyScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	dest := snapshot.Scope{TenantId: req.DestTenantId, BranchId: req.DestBranchId}
	result, err := getEngine().CopyScope(c.Request.Context(), scopeFromRequest(c), dest, snapshot.CopyOptions{
		BackupSource: req.BackupSource,
	})
	if err != nil {
		if errors.Is(err, snapshot.ErrNoProviders) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func saveBackupHandler(c *gin.Context) {
	if err := getEngine().SaveBackup(c.Request.Context(), scopeFromRequest(c)); err != nil {
		if errors.Is(err, snapshot.ErrNoProviders) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func lastBackupHandler(c *gin.Context) {
	at, err := getEngine().LastBackupAt(c.Request.Context(), scopeFromRequest(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if at == nil {
		c.JSON(http.StatusOK, gin.H{"last_backup_at": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"last_backup_at": at.UTC().Format(time.RFC3339)})
}

func restoreBackupHandler(c *gin.Context) {
	if err := getEngine().RestoreBackup(c.Request.Context(), scopeFromRequest(c)); err != nil {
		if errors.Is(err, snapshot.ErrNoBackup) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()
	providerCache = cache.NewProviderCache(logger)
	registerCustomValidators()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", middlewares.HeaderTenantId, middlewares.HeaderBranchId)
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	api := r.Group("/api", middlewares.ScopeMiddleware())
	{
		api.GET("/providers", listProvidersHandler)
		api.POST("/providers", createProviderHandler)
		api.GET("/providers/:id", getProviderHandler)
		api.PUT("/providers/:id", updateProviderHandler)
		api.DELETE("/providers/:id", deleteProviderHandler)
		api.POST("/providers/:id/summary/recompute", recomputeSummaryHandler)

		api.POST("/weeks/ensure", ensureWeekHandler)
		api.GET("/weeks/:id/providers", listWeekProvidersHandler)
		api.POST("/weeks/:id/providers/:providerId", includeProviderInWeekHandler)
		api.DELETE("/weeks/:id/providers/:providerId", excludeProviderFromWeekHandler)
		api.PUT("/weeks/:id/providers/:providerId/status", setWeekProviderStatusHandler)

		api.POST("/orders", createOrderHandler)
		api.GET("/orders/:id/items", listOrderItemsHandler)
		api.POST("/orders/:id/snapshots", addOrderSnapshotHandler)
		api.PUT("/orders/:id/ui-state", setOrderUiStateHandler)

		api.GET("/settings/sales-source", getSalesSourceHandler)
		api.PUT("/settings/sales-source", setSalesSourceHandler)

		api.GET("/scope/export", exportScopeHandler)
		api.POST("/scope/import", importScopeHandler)
		api.POST("/scope/copy", copyScopeHandler)
		api.POST("/scope/backup", saveBackupHandler)
		api.GET("/scope/backup", lastBackupHandler)
		api.POST("/scope/restore", restoreBackupHandler)
	}
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Fan in cache invalidations published by other instances.
	listenerCtx, cancelListener := context.WithCancel(context.Background())
	defer cancelListener()
	go providerCache.Listen(listenerCtx)

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/api")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop the cache listener before draining.
	cancelListener()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP() // Assuming IP-based rate limiting

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
