// Package health provides the minimal liveness/readiness HTTP surface
// every service exposes alongside its bus/RPC work, built on gin's
// Engine router.
package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Checker reports whether a service's dependencies (store, bus, downstream
// RPC) are currently reachable. A nil error means ready.
type Checker func() error

// NewRouter builds a gin.Engine exposing /healthz (always 200 once the
// process is up) and /readyz (delegates to ready).
func NewRouter(ready Checker) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/readyz", func(c *gin.Context) {
		if ready == nil {
			c.Status(http.StatusOK)
			return
		}
		if err := ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusOK)
	})

	return router
}
