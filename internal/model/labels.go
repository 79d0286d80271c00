package model

import "time"

// Label tags posts with a colored badge.
type Label struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Description *string `json:"description"`
	Timestamps
}

func (l Label) Key() string { return l.ID }

type LabelInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Color       string  `json:"color" validate:"required,len=7,hexcolor"`
	Description *string `json:"description,omitempty"`
}

func (in LabelInput) Placeholder(tmp TempID, now time.Time) Label {
	return Label{
		ID:          tmp.String(),
		Name:        in.Name,
		Color:       in.Color,
		Description: nilIfEmpty(in.Description),
		Timestamps:  Timestamps{CreatedAt: now},
	}
}

type LabelPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Color       *string `json:"color,omitempty" validate:"omitempty,len=7,hexcolor"`
	Description *string `json:"description,omitempty"`
}

func (p LabelPatch) Apply(l Label) Label {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Color != nil {
		l.Color = *p.Color
	}
	l.Description = optString(p.Description, l.Description)
	return l
}
