// Package httpapi serves the bot's status endpoints: health, Prometheus
// metrics and the coin leaderboard.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Dmetrikx/goWrestleBot/internal/storage"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// SessionCounter reports registry sizes.
type SessionCounter interface {
	Counts() (active, pending int)
}

// Leaderboard returns the richest accounts.
type Leaderboard interface {
	Leaderboard(ctx context.Context, n int) ([]*storage.Account, error)
}

// Deps are the services the API reads from.
type Deps struct {
	Sessions  SessionCounter
	Ledger    Leaderboard
	Metrics   http.Handler
	Logger    *slog.Logger
	StartedAt time.Time
	Version   string

	// AllowOrigins enables CORS for browser dashboards. Empty disables it.
	AllowOrigins []string
}

// Server is the status HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewRouter builds the gin engine.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if len(deps.AllowOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		if slices.Contains(deps.AllowOrigins, "*") {
			corsConfig.AllowAllOrigins = true
		} else {
			corsConfig.AllowOrigins = deps.AllowOrigins
		}
		corsConfig.AllowMethods = []string{http.MethodGet, http.MethodOptions}
		router.Use(cors.New(corsConfig))
	}

	router.GET("/health", func(c *gin.Context) {
		active, pending := deps.Sessions.Counts()
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"version":         deps.Version,
			"uptime_seconds":  int64(time.Since(deps.StartedAt).Seconds()),
			"active_matches":  active,
			"pending_matches": pending,
		})
	})

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	router.GET("/leaderboard", func(c *gin.Context) {
		limit := defaultLeaderboardLimit
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = min(n, maxLeaderboardLimit)
		}

		accounts, err := deps.Ledger.Leaderboard(c.Request.Context(), limit)
		if err != nil {
			deps.Logger.ErrorContext(c.Request.Context(), "failed to load leaderboard", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
			return
		}

		entries := make([]gin.H, len(accounts))
		for i, a := range accounts {
			entries[i] = gin.H{
				"rank":    i + 1,
				"user_id": a.UserID,
				"balance": a.Balance,
				"wins":    a.Wins,
				"losses":  a.Losses,
			}
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
	})

	return router
}

// NewServer creates a server listening on port.
func NewServer(port int, deps Deps) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      NewRouter(deps),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: deps.Logger,
	}
}

// Start serves in the background.
func (s *Server) Start(ctx context.Context) {
	go func() {
		s.logger.InfoContext(ctx, "status server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.ErrorContext(ctx, "status server failed", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.InfoContext(ctx, "shutting down status server")
	return s.server.Shutdown(ctx)
}
