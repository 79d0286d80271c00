package model

import "time"

// ViewRequest records one visit of a post.
type ViewRequest struct {
	Slug string `json:"slug" validate:"required,max=255"`
}

type ViewResponse struct {
	ViewsCount int64 `json:"viewsCount"`
}

// SearchHit is a post matched by a text search, joined with its names.
type SearchHit struct {
	ID         int64     `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Excerpt    string    `json:"excerpt"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	Label      *string   `json:"label"`
	Type       *string   `json:"type"`
	Author     *string   `json:"author"`
}

// Suggestion is an AI-proposed article for a search query.
type Suggestion struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

type SearchRequest struct {
	Query  string `json:"query" validate:"required"`
	TypeID string `json:"typeId,omitempty"`
}

type SearchResponse struct {
	Results      []SearchHit  `json:"results"`
	Suggestions  []Suggestion `json:"suggestions"`
	TotalResults int          `json:"totalResults"`
	CategoryName string       `json:"categoryName,omitempty"`
}

type GenerateRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type GenerateResponse struct {
	Text string `json:"text"`
}

// TrendStats compares this month's creations with last month's.
type TrendStats struct {
	Total        int64   `json:"total"`
	Change       float64 `json:"change"`
	Trend        string  `json:"trend"`
	CurrentMonth int64   `json:"currentMonth"`
	LastMonth    int64   `json:"lastMonth"`
}

type TotalStats struct {
	Total int64 `json:"total"`
}

type DashboardStats struct {
	Posts    TrendStats `json:"posts"`
	Users    TrendStats `json:"users"`
	Labels   TotalStats `json:"labels"`
	Comments TotalStats `json:"comments"`
	Views    TotalStats `json:"views"`
}

// NewTrend computes the percentage change rounded to one decimal.
func NewTrend(total, current, last int64) TrendStats {
	var change float64
	switch {
	case last > 0:
		change = float64(current-last) / float64(last) * 100
	case current > 0:
		change = 100
	}
	change = float64(int64(change*10+sign(change)*0.5)) / 10
	trend := "up"
	if change < 0 {
		trend = "down"
	}
	return TrendStats{Total: total, Change: change, Trend: trend, CurrentMonth: current, LastMonth: last}
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// Admin notification kinds.
const (
	NotificationPostCreated   = "post_created"
	NotificationUserJoined    = "user_joined"
	NotificationViewMilestone = "view_milestone"
)

// AdminNotification is one entry of the dashboard activity feed.
type AdminNotification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Priority  int       `json:"priority"`
}
