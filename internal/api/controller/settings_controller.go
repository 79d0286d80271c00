package controller

import (
	"errors"
	"net/http"

	"github.com/bassista/go_quill/internal/logger"
	"github.com/bassista/go_quill/internal/model"
	"github.com/bassista/go_quill/internal/settings"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// SettingsStore is the cache API used by the settings and shortcut handlers.
type SettingsStore interface {
	settings.SettingStore
	settings.ShortcutStore
}

// SettingsController edits the settings document held in memory; the
// persistence scheduler writes it back to disk.
type SettingsController struct {
	Store     SettingsStore
	Validator *validator.Validate
	log       *logrus.Entry
}

func NewSettingsController(store SettingsStore, v *validator.Validate) *SettingsController {
	if v == nil {
		v = model.NewValidator()
	}
	return &SettingsController{Store: store, Validator: v, log: logger.WithComponent("settings-controller")}
}

// RegisterRoutes registers /settings and /shortcuts behind guard.
func (sc *SettingsController) RegisterRoutes(rg *gin.RouterGroup, guard ...gin.HandlerFunc) {
	g := rg.Group("", guard...)
	g.GET("/settings", sc.ListSettings)
	g.GET("/settings/:key", sc.GetSetting)
	g.PUT("/settings/:key", sc.PutSetting)
	g.DELETE("/settings/:key", sc.DeleteSetting)

	g.GET("/shortcuts", sc.ListShortcuts)
	g.POST("/shortcuts", sc.CreateShortcut)
	g.PATCH("/shortcuts/:id", sc.UpdateShortcut)
	g.DELETE("/shortcuts/:id", sc.DeleteShortcut)
}

// ListSettings handles GET /settings?category=.
func (sc *SettingsController) ListSettings(c *gin.Context) {
	doc, err := sc.Store.Snapshot()
	if err != nil {
		sc.log.Errorf("snapshot settings: %v", err)
		fail(c, http.StatusInternalServerError, "Failed to list settings")
		return
	}
	category := c.Query("category")
	out := make([]settings.Setting, 0, len(doc.Settings))
	for _, s := range doc.Settings {
		if category == "" || s.Category == category {
			out = append(out, s)
		}
	}
	respond(c, http.StatusOK, out, "")
}

// GetSetting handles GET /settings/:key.
func (sc *SettingsController) GetSetting(c *gin.Context) {
	s, ok := sc.Store.Setting(c.Param("key"))
	if !ok {
		fail(c, http.StatusNotFound, "Setting not found")
		return
	}
	respond(c, http.StatusOK, s, "")
}

// PutSetting handles PUT /settings/:key, creating or replacing the setting.
func (sc *SettingsController) PutSetting(c *gin.Context) {
	key := c.Param("key")
	if err := sc.Validator.Var(key, "required,max=100"); err != nil {
		fail(c, http.StatusBadRequest, "Invalid setting key")
		return
	}
	var in settings.SettingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := sc.Validator.Struct(in); err != nil {
		fail(c, http.StatusBadRequest, model.ValidationMessage(err))
		return
	}
	saved, err := sc.Store.UpsertSetting(in.Setting(key))
	if err != nil {
		sc.log.Errorf("upsert setting %s: %v", key, err)
		fail(c, http.StatusInternalServerError, "Failed to save setting")
		return
	}
	sc.log.Infof("setting %s saved", key)
	respond(c, http.StatusOK, saved, "Setting saved successfully")
}

// DeleteSetting handles DELETE /settings/:key.
func (sc *SettingsController) DeleteSetting(c *gin.Context) {
	key := c.Param("key")
	if err := sc.Store.RemoveSetting(key); err != nil {
		sc.failSettings(c, err, "delete setting")
		return
	}
	respondMessage(c, http.StatusOK, "Setting deleted successfully")
}

// ListShortcuts handles GET /shortcuts.
func (sc *SettingsController) ListShortcuts(c *gin.Context) {
	respond(c, http.StatusOK, sc.Store.Shortcuts(), "")
}

// CreateShortcut handles POST /shortcuts.
func (sc *SettingsController) CreateShortcut(c *gin.Context) {
	var in settings.ShortcutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := sc.Validator.Struct(in); err != nil {
		fail(c, http.StatusBadRequest, model.ValidationMessage(err))
		return
	}
	added, err := sc.Store.AddShortcut(in.Shortcut())
	if err != nil {
		sc.failSettings(c, err, "create shortcut")
		return
	}
	respond(c, http.StatusCreated, added, "Shortcut created successfully")
}

// UpdateShortcut handles PATCH /shortcuts/:id.
func (sc *SettingsController) UpdateShortcut(c *gin.Context) {
	var patch settings.ShortcutPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := sc.Validator.Struct(patch); err != nil {
		fail(c, http.StatusBadRequest, model.ValidationMessage(err))
		return
	}
	updated, err := sc.Store.UpdateShortcut(c.Param("id"), patch)
	if err != nil {
		sc.failSettings(c, err, "update shortcut")
		return
	}
	respond(c, http.StatusOK, updated, "Shortcut updated successfully")
}

// DeleteShortcut handles DELETE /shortcuts/:id.
func (sc *SettingsController) DeleteShortcut(c *gin.Context) {
	if err := sc.Store.RemoveShortcut(c.Param("id")); err != nil {
		sc.failSettings(c, err, "delete shortcut")
		return
	}
	respondMessage(c, http.StatusOK, "Shortcut deleted successfully")
}

func (sc *SettingsController) failSettings(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, settings.ErrSettingNotFound):
		fail(c, http.StatusNotFound, "Setting not found")
	case errors.Is(err, settings.ErrShortcutNotFound):
		fail(c, http.StatusNotFound, "Shortcut not found")
	case errors.Is(err, settings.ErrShortcutExists):
		fail(c, http.StatusConflict, "Shortcut already exists")
	default:
		sc.log.Errorf("%s: %v", action, err)
		fail(c, http.StatusInternalServerError, "Failed to "+action)
	}
}
