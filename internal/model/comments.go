package model

import (
	"strconv"
	"time"
)

// CommentAuthor is the public projection of a comment's author.
type CommentAuthor struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Image *string `json:"image"`
	Role  Role    `json:"role"`
}

// Comment belongs to a post and may reply to another comment.
type Comment struct {
	ID       int64          `json:"id"`
	Content  string         `json:"content"`
	AuthorID *int64         `json:"authorId"`
	PostID   int64          `json:"postId"`
	ParentID *int64         `json:"parentId"`
	Author   *CommentAuthor `json:"author,omitempty"`
	Timestamps
}

func (c Comment) Key() string { return strconv.FormatInt(c.ID, 10) }

type CommentInput struct {
	Content  string `json:"content" validate:"required,max=5000"`
	PostID   int64  `json:"postId" validate:"required,gt=0"`
	ParentID *int64 `json:"parentId,omitempty" validate:"omitempty,gt=0"`
	AuthorID *int64 `json:"authorId,omitempty" validate:"omitempty,gt=0"`
}

func (in CommentInput) Placeholder(tmp TempID, now time.Time) Comment {
	return Comment{
		ID:         tmp.Int(),
		Content:    in.Content,
		AuthorID:   in.AuthorID,
		PostID:     in.PostID,
		ParentID:   in.ParentID,
		Timestamps: Timestamps{CreatedAt: now},
	}
}

type CommentPatch struct {
	Content *string `json:"content,omitempty" validate:"omitempty,min=1,max=5000"`
}

func (p CommentPatch) Apply(c Comment) Comment {
	if p.Content != nil {
		c.Content = *p.Content
	}
	return c
}
