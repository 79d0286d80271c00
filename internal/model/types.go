package model

import "time"

// Type is a post category.
type Type struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Timestamps
}

func (t Type) Key() string { return t.ID }

// TypeInput is the create payload of a type.
type TypeInput struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Description *string `json:"description,omitempty"`
}

func (in TypeInput) Placeholder(tmp TempID, now time.Time) Type {
	return Type{
		ID:          tmp.String(),
		Name:        in.Name,
		Description: nilIfEmpty(in.Description),
		Timestamps:  Timestamps{CreatedAt: now},
	}
}

// TypePatch is a partial update; nil fields are left untouched and an empty
// description clears it.
type TypePatch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description,omitempty"`
}

func (p TypePatch) Apply(t Type) Type {
	if p.Name != nil {
		t.Name = *p.Name
	}
	t.Description = optString(p.Description, t.Description)
	return t
}
