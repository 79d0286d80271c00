package controller

import (
	"context"
	"net/http"

	"github.com/bassista/go_quill/internal/logger"
	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health answers UP while the database responds.
func Health(db Pinger) gin.HandlerFunc {
	log := logger.WithComponent("health")
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			log.Warnf("database ping failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "DOWN", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "UP"})
	}
}
