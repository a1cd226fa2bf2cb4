// Package httpapi exposes the expedition service over HTTP with gin.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options configures the router.
type Options struct {
	// Metrics serves GET /metrics when non-nil.
	Metrics http.Handler
	// Observer records request metrics when non-nil.
	Observer HTTPObserver
	// Ready backs GET /health; nil means always ready.
	Ready func() error
	// Now supplies the default run date; nil means time.Now.
	Now func() time.Time
}

// NewRouter builds the gin engine serving svc.
//
// Precondition: svc and logger must be non-nil.
// Postcondition: Returns an engine with logging, recovery, /health and the /v1 routes registered.
func NewRouter(svc Expedition, logger *zap.Logger, opts Options) *gin.Engine {
	h := &Handler{svc: svc, now: opts.Now}
	if h.now == nil {
		h.now = time.Now
	}

	r := gin.New()
	r.Use(requestLogger(logger.Named("http")))
	if opts.Observer != nil {
		r.Use(requestMetrics(opts.Observer))
	}
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		if opts.Ready != nil {
			if err := opts.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, apiError{Message: errNotFound.Error()})
	})

	players := r.Group("/v1/players/:player")
	{
		players.POST("", h.initPlayer)
		players.GET("/stats", h.playerStats)
		players.GET("/progress/:date", h.dailyProgress)
		players.PUT("/progress/:date", h.recordHabitPoints)
		players.GET("/biomes", h.listBiomes)
		players.GET("/inventory", h.inventory)
		players.POST("/runs", h.useRun)
		players.POST("/combat", h.startCombat)
		players.GET("/combat", h.combatState)
		players.POST("/combat/actions", h.combatAction)
		players.GET("/creatures", h.creatures)
		players.POST("/party/:creature", h.partyAdd)
		players.DELETE("/party/:creature", h.partyRemove)
	}
	return r
}
