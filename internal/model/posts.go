package model

import (
	"strconv"
	"time"
)

// Post is a published article.
type Post struct {
	ID         int64   `json:"id"`
	Slug       string  `json:"slug"`
	Title      string  `json:"title"`
	CoverImage string  `json:"coverImage"`
	Content    string  `json:"content"`
	Excerpt    string  `json:"excerpt"`
	AuthorID   *int64  `json:"authorId"`
	LabelID    *string `json:"labelId"`
	TypeID     *string `json:"typeId"`
	Timestamps
}

func (p Post) Key() string { return strconv.FormatInt(p.ID, 10) }

type PostInput struct {
	Slug       string  `json:"slug" validate:"required,max=255,slug"`
	Title      string  `json:"title" validate:"required,max=255"`
	CoverImage string  `json:"coverImage" validate:"required,max=500"`
	Content    string  `json:"content" validate:"required"`
	Excerpt    string  `json:"excerpt" validate:"required"`
	AuthorID   *int64  `json:"authorId,omitempty" validate:"omitempty,gt=0"`
	LabelID    *string `json:"labelId,omitempty" validate:"omitempty,uuid"`
	TypeID     *string `json:"typeId,omitempty" validate:"omitempty,uuid"`
}

func (in PostInput) Placeholder(tmp TempID, now time.Time) Post {
	return Post{
		ID:         tmp.Int(),
		Slug:       in.Slug,
		Title:      in.Title,
		CoverImage: in.CoverImage,
		Content:    in.Content,
		Excerpt:    in.Excerpt,
		AuthorID:   in.AuthorID,
		LabelID:    nilIfEmpty(in.LabelID),
		TypeID:     nilIfEmpty(in.TypeID),
		Timestamps: Timestamps{CreatedAt: now},
	}
}

type PostPatch struct {
	Slug       *string `json:"slug,omitempty" validate:"omitempty,max=255,slug"`
	Title      *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	CoverImage *string `json:"coverImage,omitempty" validate:"omitempty,max=500"`
	Content    *string `json:"content,omitempty" validate:"omitempty,min=1"`
	Excerpt    *string `json:"excerpt,omitempty" validate:"omitempty,min=1"`
	AuthorID   *int64  `json:"authorId,omitempty" validate:"omitempty,gt=0"`
	LabelID    *string `json:"labelId,omitempty" validate:"omitempty,uuid"`
	TypeID     *string `json:"typeId,omitempty" validate:"omitempty,uuid"`
}

func (p PostPatch) Apply(post Post) Post {
	if p.Slug != nil {
		post.Slug = *p.Slug
	}
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.CoverImage != nil {
		post.CoverImage = *p.CoverImage
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Excerpt != nil {
		post.Excerpt = *p.Excerpt
	}
	if p.AuthorID != nil {
		v := *p.AuthorID
		post.AuthorID = &v
	}
	post.LabelID = optString(p.LabelID, post.LabelID)
	post.TypeID = optString(p.TypeID, post.TypeID)
	return post
}
