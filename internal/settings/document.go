// Package settings keeps the site settings and admin shortcuts in a JSON file,
// mirrored by an in-memory store that is flushed back periodically.
package settings

import (
	"encoding/json"
	"reflect"
)

// Metadata holds versioning info for optimistic reloads.
type Metadata struct {
	LastUpdate int64 `json:"lastUpdate"` // Unix timestamp in milliseconds
}

// Document is the persisted JSON structure.
type Document struct {
	Metadata  Metadata   `json:"metadata"`
	Settings  []Setting  `json:"settings" validate:"dive"`
	Shortcuts []Shortcut `json:"shortcuts" validate:"dive"`
}

// Setting is a keyed configuration value editable from the dashboard.
type Setting struct {
	Key         string          `json:"key" validate:"required,max=100"`
	Value       json.RawMessage `json:"value" validate:"required"`
	Description *string         `json:"description,omitempty"`
	Category    string          `json:"category" validate:"required,max=50"`
	IsActive    *bool           `json:"isActive" validate:"required"`
	UpdatedAt   int64           `json:"updatedAt"`
}

// Shortcut is a dashboard quick link.
type Shortcut struct {
	ID          string  `json:"id" validate:"required"`
	Title       string  `json:"title" validate:"required,max=100"`
	Description *string `json:"description,omitempty"`
	URL         string  `json:"url" validate:"required,url"`
	Icon        *string `json:"icon,omitempty"`
	Order       int     `json:"order" validate:"min=0"`
	IsActive    *bool   `json:"isActive" validate:"required"`
}

// SettingInput is the body of a setting upsert; the key comes from the path.
type SettingInput struct {
	Value       json.RawMessage `json:"value" validate:"required"`
	Description *string         `json:"description,omitempty"`
	Category    string          `json:"category,omitempty" validate:"omitempty,max=50"`
	IsActive    *bool           `json:"isActive,omitempty"`
}

func (in SettingInput) Setting(key string) Setting {
	return Setting{
		Key:         key,
		Value:       in.Value,
		Description: in.Description,
		Category:    in.Category,
		IsActive:    in.IsActive,
	}
}

// ShortcutInput creates a shortcut; the id is assigned by the store.
type ShortcutInput struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Description *string `json:"description,omitempty"`
	URL         string  `json:"url" validate:"required,url"`
	Icon        *string `json:"icon,omitempty"`
	Order       int     `json:"order" validate:"min=0"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

func (in ShortcutInput) Shortcut() Shortcut {
	return Shortcut{
		Title:       in.Title,
		Description: in.Description,
		URL:         in.URL,
		Icon:        in.Icon,
		Order:       in.Order,
		IsActive:    in.IsActive,
	}
}

// ShortcutPatch updates the non-nil fields of a shortcut.
type ShortcutPatch struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty" validate:"omitempty,url"`
	Icon        *string `json:"icon,omitempty"`
	Order       *int    `json:"order,omitempty" validate:"omitempty,min=0"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

const defaultCategory = "general"

// ApplyDefaults sets fallback values after decode.
func (d *Document) ApplyDefaults() {
	if d.Settings == nil {
		d.Settings = []Setting{}
	}
	if d.Shortcuts == nil {
		d.Shortcuts = []Shortcut{}
	}
	for i := range d.Settings {
		d.Settings[i].applyDefaults()
	}
	for i := range d.Shortcuts {
		d.Shortcuts[i].applyDefaults()
	}
}

func (s *Setting) applyDefaults() {
	if s.Category == "" {
		s.Category = defaultCategory
	}
	if s.IsActive == nil {
		v := true
		s.IsActive = &v
	}
	if len(s.Value) == 0 {
		s.Value = json.RawMessage("null")
	}
}

func (s *Shortcut) applyDefaults() {
	if s.IsActive == nil {
		v := true
		s.IsActive = &v
	}
}

func (p ShortcutPatch) apply(s Shortcut) Shortcut {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = emptyToNil(*p.Description)
	}
	if p.URL != nil {
		s.URL = *p.URL
	}
	if p.Icon != nil {
		s.Icon = emptyToNil(*p.Icon)
	}
	if p.Order != nil {
		s.Order = *p.Order
	}
	if p.IsActive != nil {
		v := *p.IsActive
		s.IsActive = &v
	}
	return s
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// AreDocumentsEqual compares two documents ignoring Metadata.
func AreDocumentsEqual(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}

	aBytes, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bBytes, err := json.Marshal(b)
	if err != nil {
		return false
	}

	var aMap, bMap map[string]any
	if err := json.Unmarshal(aBytes, &aMap); err != nil {
		return false
	}
	if err := json.Unmarshal(bBytes, &bMap); err != nil {
		return false
	}

	delete(aMap, "metadata")
	delete(bMap, "metadata")

	return reflect.DeepEqual(aMap, bMap)
}
