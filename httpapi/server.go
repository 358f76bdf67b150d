package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lbclottery/application"
	"lbclottery/domain/entities"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// LedgerReader is the read side of the ledger exposed over HTTP
type LedgerReader interface {
	GetSummary(ctx context.Context, guildID int64) (*entities.LedgerSummary, error)
	ListEvents(ctx context.Context, guildID int64, limit int) ([]*entities.LedgerEvent, error)
	GetAccount(ctx context.Context, guildID, account int64) (*application.AccountInfo, error)
}

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// Server is the read-only status API
type Server struct {
	server *http.Server
}

// NewServer creates the status API listening on addr
func NewServer(addr string, ledger LedgerReader, checks map[string]HealthCheck) *Server {
	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(ledger, checks),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// NewRouter builds the gin engine with all routes registered
func NewRouter(ledger LedgerReader, checks map[string]HealthCheck) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	h := &handler{ledger: ledger, checks: checks}
	h.RegisterRoutes(engine)

	return engine
}

// Start serves in the background until Shutdown
func (s *Server) Start() {
	go func() {
		log.Infof("Status API listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Status API server error: %v", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down status API: %w", err)
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("Status API request")
	}
}
