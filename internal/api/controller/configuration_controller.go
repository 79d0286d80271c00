package controller

import (
	"net/http"

	"github.com/bassista/go_quill/internal/ai"
	"github.com/bassista/go_quill/internal/config"
	"github.com/bassista/go_quill/internal/settings"
	"github.com/gin-gonic/gin"
)

// ConfigurationResponse is the public configuration read by API clients.
type ConfigurationResponse struct {
	StaleTimeMs     int64 `json:"staleTimeMs"`
	GCTimeMs        int64 `json:"gcTimeMs"`
	AIEnabled       bool  `json:"aiEnabled"`
	CommentsEnabled bool  `json:"commentsEnabled"`
	Maintenance     bool  `json:"maintenance"`
}

// ConfigurationController handles configuration-related API endpoints.
type ConfigurationController struct {
	config *config.Config
	store  settings.ReadOnlyStore
	ai     ai.Suggester
}

func NewConfigurationController(cfg *config.Config, store settings.ReadOnlyStore, suggester ai.Suggester) *ConfigurationController {
	return &ConfigurationController{config: cfg, store: store, ai: suggester}
}

// GetConfiguration returns the cache windows and feature switches for clients.
func (cc *ConfigurationController) GetConfiguration(c *gin.Context) {
	_, noop := cc.ai.(ai.Noop)
	respond(c, http.StatusOK, ConfigurationResponse{
		StaleTimeMs:     cc.config.Cache.StaleTime.Milliseconds(),
		GCTimeMs:        cc.config.Cache.GCTime.Milliseconds(),
		AIEnabled:       cc.ai != nil && !noop,
		CommentsEnabled: cc.store.CommentsEnabled(),
		Maintenance:     cc.store.Maintenance().Enabled,
	}, "")
}
