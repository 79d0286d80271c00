package model

import (
	"strconv"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleVisitor Role = "VISITOR"
)

// User is a registered account mirrored from the identity provider.
type User struct {
	ID         int64   `json:"id"`
	ExternalID *string `json:"externalId"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Image      *string `json:"image"`
	Bio        *string `json:"bio"`
	Role       Role    `json:"role"`
	Timestamps
}

func (u User) Key() string { return strconv.FormatInt(u.ID, 10) }

type UserInput struct {
	ExternalID *string `json:"externalId,omitempty" validate:"omitempty,max=255"`
	Name       string  `json:"name" validate:"required,max=255"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Image      *string `json:"image,omitempty" validate:"omitempty,max=500"`
	Bio        *string `json:"bio,omitempty"`
	Role       Role    `json:"role" validate:"required,oneof=ADMIN VISITOR"`
}

func (in UserInput) Placeholder(tmp TempID, now time.Time) User {
	return User{
		ID:         tmp.Int(),
		ExternalID: nilIfEmpty(in.ExternalID),
		Name:       in.Name,
		Email:      in.Email,
		Image:      nilIfEmpty(in.Image),
		Bio:        nilIfEmpty(in.Bio),
		Role:       in.Role,
		Timestamps: Timestamps{CreatedAt: now},
	}
}

type UserPatch struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Image *string `json:"image,omitempty" validate:"omitempty,max=500"`
	Bio   *string `json:"bio,omitempty"`
	Role  *Role   `json:"role,omitempty" validate:"omitempty,oneof=ADMIN VISITOR"`
}

func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	u.Image = optString(p.Image, u.Image)
	u.Bio = optString(p.Bio, u.Bio)
	if p.Role != nil {
		u.Role = *p.Role
	}
	return u
}
