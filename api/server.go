// Package api is the main api web server
package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aouyang1/iotacanvas/api/models"
	"github.com/aouyang1/iotacanvas/api/web/templates"
	"github.com/aouyang1/iotacanvas/artwork"
	"github.com/aouyang1/iotacanvas/metrics"
	"github.com/aouyang1/iotacanvas/settings"
	"github.com/aouyang1/iotacanvas/store"
	"github.com/aouyang1/iotacanvas/util"
	"github.com/aouyang1/iotacanvas/wallet"
)

//go:embed web/static
var webFiles embed.FS

const (
	qrStaticPath    = "/images/receive_address_qr.jpg"
	shutdownTimeout = 10 * time.Second
)

// Refresher triggers an artwork refresh outside of the schedule.
type Refresher interface {
	RequestRefresh() bool
}

type Options struct {
	Wallet       *wallet.Client
	BalanceCache *wallet.BalanceCache
	Refresher    Refresher
	ArtworkDir   string
	QRPath       string
	CORSOrigins  []string
}

type WebServer struct {
	router *gin.Engine
	db     *store.Database

	wallet    *wallet.Client
	cache     *wallet.BalanceCache
	refresher Refresher

	artworkDir string
	qrPath     string
	staticFS   http.FileSystem

	// serializes receive address generation and qr writes
	iotaMu sync.Mutex
}

func NewWebServer(db *store.Database, opts Options) (*WebServer, error) {
	staticFS, err := fs.Sub(webFiles, "web/static")
	if err != nil {
		return nil, fmt.Errorf("failed to create static filesystem: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), metricsMiddleware())
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  opts.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Content-Type", requestIDHeader},
			ExposeHeaders: []string{"Content-Length", requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	ws := &WebServer{
		router:     router,
		db:         db,
		wallet:     opts.Wallet,
		cache:      opts.BalanceCache,
		refresher:  opts.Refresher,
		artworkDir: opts.ArtworkDir,
		qrPath:     opts.QRPath,
		staticFS:   http.FS(staticFS),
	}
	ws.setupRoutes()
	return ws, nil
}

func (ws *WebServer) setupRoutes() {
	ws.router.GET("/static/*filepath", ws.handleStatic)
	ws.router.GET("/favicon.ico", ws.handleFavicon)
	ws.router.GET("/favicon.svg", ws.handleFavicon)

	ws.router.GET("/", func(c *gin.Context) {
		renderHTML(c, templates.Index("settings"))
	})
	ws.router.GET("/ui/settings", ws.handleUISettings)
	ws.router.GET("/ui/balance", ws.handleUIBalance)
	ws.router.GET("/ui/art", ws.handleUIArt)

	// API routes
	ws.router.GET("/user_settings", ws.handleGetSettings)
	ws.router.POST("/update_settings", ws.handleUpdateSettings)
	ws.router.GET("/iota_settings", ws.handleIotaSettings)
	ws.router.GET("/iota_balance", ws.handleIotaBalance)
	ws.router.GET("/artwork", ws.handleGetArtwork)
	ws.router.GET("/artwork/:name/image", ws.handleArtworkImage)
	ws.router.POST("/artwork/refresh", ws.handleRefreshArtwork)

	ws.router.GET("/healthz", ws.handleHealth)
	ws.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Start serves on addr until ctx is done, then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           ws.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting web server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start web server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("shutting down web server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	return nil
}

func renderHTML(c *gin.Context, component templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		slog.Error("failed to render component", "path", c.Request.URL.Path, "error", err)
	}
}

func (ws *WebServer) handleStatic(c *gin.Context) {
	path := c.Param("filepath")
	if path == qrStaticPath {
		if ws.qrPath == "" {
			c.Status(http.StatusNotFound)
			return
		}
		if _, err := os.Stat(ws.qrPath); err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Header("Cache-Control", "no-cache")
		c.File(ws.qrPath)
		return
	}
	c.FileFromFS(path, ws.staticFS)
}

func (ws *WebServer) handleFavicon(c *gin.Context) {
	data, err := webFiles.ReadFile("web/static/images/favicon.svg")
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", data)
}

func (ws *WebServer) handleGetSettings(c *gin.Context) {
	rec, err := ws.db.GetSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get settings: %v", err)})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// handleUpdateSettings persists every field of the body or none of them and
// answers with the stored record.
func (ws *WebServer) handleUpdateSettings(c *gin.Context) {
	var req models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	if len(req) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no settings fields provided"})
		return
	}

	rec, err := ws.db.UpdateSettingsFields(c.Request.Context(), req)
	for field := range req {
		metrics.RecordSettingsWrite(field, err)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, settings.ErrUnknownField) || errors.Is(err, settings.ErrInvalidValue) {
			status = http.StatusBadRequest
		}
		c.JSON(status, models.ErrorResponse{Error: err.Error()})
		return
	}

	slog.Info("settings updated", "fields", len(req))
	c.JSON(http.StatusOK, rec)
}

// iotaSettings returns the receive state, asking the wallet for a first
// address when none was generated yet, and refreshes the qr code.
func (ws *WebServer) iotaSettings(ctx context.Context) (*store.IotaState, error) {
	ws.iotaMu.Lock()
	defer ws.iotaMu.Unlock()

	state, err := ws.db.GetIotaState(ctx)
	if err != nil {
		return nil, err
	}

	if state.ReceiveAddress == "" && ws.wallet != nil {
		addr, err := ws.wallet.NewAddress(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate receive address: %w", err)
		}
		state, err = ws.db.SetReceiveAddress(ctx, addr)
		if err != nil {
			return nil, err
		}
		if err := ws.cache.Invalidate(ctx); err != nil {
			slog.Warn("unable to invalidate cached balance", "error", err)
		}
		slog.Info("generated receive address", "addr_index", state.AddrIndex)
	}

	if state.ReceiveAddress != "" && ws.qrPath != "" {
		if err := wallet.SaveQR(state.ReceiveAddress, ws.qrPath); err != nil {
			slog.Warn("unable to write receive address qr code", "error", err)
		}
	}
	return state, nil
}

func (ws *WebServer) handleIotaSettings(c *gin.Context) {
	state, err := ws.iotaSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.IotaSettingsResponse{
		Node:           state.Node,
		AddrIndex:      state.AddrIndex,
		ReceiveAddress: state.ReceiveAddress,
	})
}

// balance is nil when no wallet is configured.
func (ws *WebServer) balance(ctx context.Context) (*int64, error) {
	if ws.wallet == nil {
		return nil, nil
	}

	cached, ok, err := ws.cache.Get(ctx)
	if err != nil {
		slog.Warn("unable to read cached balance", "error", err)
	}
	if ok {
		return &cached, nil
	}

	balance, err := ws.wallet.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	if err := ws.cache.Set(ctx, balance); err != nil {
		slog.Warn("unable to cache balance", "error", err)
	}
	return &balance, nil
}

func (ws *WebServer) handleIotaBalance(c *gin.Context) {
	balance, err := ws.balance(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.BalanceResponse{CurrentBalance: balance})
}

func (ws *WebServer) artworkState(ctx context.Context) (*models.ArtworkResponse, error) {
	state, err := ws.db.GetArtState(ctx)
	if err != nil {
		return nil, err
	}
	names, err := artwork.List(ws.artworkDir)
	if err != nil {
		return nil, err
	}
	return &models.ArtworkResponse{
		CurrentArtwork:  state.CurrentArtwork,
		Artworks:        names,
		LastRefreshTime: state.LastRefreshTime,
	}, nil
}

func (ws *WebServer) handleGetArtwork(c *gin.Context) {
	resp, err := ws.artworkState(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to list artwork: %v", err)})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (ws *WebServer) handleArtworkImage(c *gin.Context) {
	name := c.Param("name")
	if filepath.Base(name) != name || !util.IsArtwork(name) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid artwork name: %s", name)})
		return
	}

	path := filepath.Join(ws.artworkDir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("Artwork not found: %s", name)})
		return
	}
	c.File(path)
}

func (ws *WebServer) handleRefreshArtwork(c *gin.Context) {
	if ws.refresher == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "artwork refresh is not running"})
		return
	}
	msg := "artwork refresh started"
	if !ws.refresher.RequestRefresh() {
		msg = "artwork refresh already requested"
	}
	c.JSON(http.StatusOK, models.RefreshResponse{Message: msg})
}

func (ws *WebServer) handleHealth(c *gin.Context) {
	if err := ws.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.HealthResponse{Status: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
}

func (ws *WebServer) handleUISettings(c *gin.Context) {
	rec, err := ws.db.GetSettings(c.Request.Context())
	if err != nil {
		renderHTML(c, templates.Error(err.Error()))
		return
	}
	renderHTML(c, templates.Settings(*rec))
}

func (ws *WebServer) handleUIBalance(c *gin.Context) {
	ctx := c.Request.Context()
	state, err := ws.iotaSettings(ctx)
	if err != nil {
		renderHTML(c, templates.Error(err.Error()))
		return
	}
	balance, err := ws.balance(ctx)
	if err != nil {
		renderHTML(c, templates.Error(err.Error()))
		return
	}
	renderHTML(c, templates.Balance(
		models.IotaSettingsResponse{Node: state.Node, AddrIndex: state.AddrIndex, ReceiveAddress: state.ReceiveAddress},
		models.BalanceResponse{CurrentBalance: balance},
	))
}

func (ws *WebServer) handleUIArt(c *gin.Context) {
	resp, err := ws.artworkState(c.Request.Context())
	if err != nil {
		renderHTML(c, templates.Error(err.Error()))
		return
	}
	renderHTML(c, templates.Art(*resp))
}
