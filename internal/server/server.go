// Package server exposes the HTTP API. Routes are instance-scoped: every
// operation names the account it reads or configures.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/api"
)

// Config carries the HTTP server settings.
type Config struct {
	Addr   string
	APIKey string
}

// Server wraps the gin engine with graceful shutdown helpers.
type Server struct {
	cfg    Config
	engine *gin.Engine
	log    *zap.Logger
}

// New constructs the HTTP server with default middleware and routes.
func New(cfg Config, chats *api.ChatService, messages *api.MessageService, contacts *api.ContactService, instances *api.InstanceService, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{cfg: cfg, engine: engine, log: log}

	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "zapgate", "status": "ok"})
	})
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	h := &handlers{
		chats:     chats,
		messages:  messages,
		contacts:  contacts,
		instances: instances,
		log:       log,
	}

	authed := engine.Group("/", s.apiKeyMiddleware())
	authed.POST("/chat/findChats/:instance", h.findChats)
	authed.POST("/chat/findContacts/:instance", h.findContacts)
	authed.POST("/chat/findMessages/:instance", h.findMessages)
	authed.POST("/chat/findStatusMessage/:instance", h.findStatusMessages)
	authed.GET("/chat/find/:instance", h.findChat)

	authed.GET("/instance/connectionState/:instance", h.connectionState)

	authed.POST("/settings/set/:instance", h.setSettings)
	authed.GET("/settings/find/:instance", h.findSettings)
	authed.POST("/proxy/set/:instance", h.setProxy)
	authed.GET("/proxy/find/:instance", h.findProxy)
	authed.POST("/webhook/set/:instance", h.setWebhook)
	authed.GET("/webhook/find/:instance", h.findWebhook)

	authed.POST("/message/sendText/:instance", h.sendText)

	return s
}

// Handler returns the underlying HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP listener and shuts down gracefully when ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down http server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) apiKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.APIKey != "" && c.GetHeader("apikey") != s.cfg.APIKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  http.StatusUnauthorized,
				"error":   "Unauthorized",
				"message": "invalid api key",
			})
			return
		}
		c.Next()
	}
}
