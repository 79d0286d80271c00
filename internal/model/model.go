// Package model holds the blog entities shared by the API server, the SQLite
// store and the HTTP client library, together with their create inputs and
// partial-update patches.
package model

import (
	"strconv"
	"time"
)

// TempID identifies an optimistic placeholder until the server assigns a real id.
type TempID struct {
	Nanos int64
	Seq   uint64
}

// String is the placeholder id for resources keyed by strings.
func (t TempID) String() string {
	return "temp-" + strconv.FormatInt(t.Nanos, 10) + "-" + strconv.FormatUint(t.Seq, 10)
}

// Int is the placeholder id for serial-keyed resources. Real ids are positive.
func (t TempID) Int() int64 {
	return -int64(t.Seq) - 1
}

// Entity is a server-owned record addressable by a string key.
type Entity interface {
	Key() string
}

// Draft is a create input able to build an optimistic placeholder of T.
type Draft[T any] interface {
	Placeholder(tmp TempID, now time.Time) T
}

// Patch is a partial update applicable to T. Apply must not mutate its argument.
type Patch[T any] interface {
	Apply(current T) T
}

// Timestamps are the lifecycle columns shared by every table.
type Timestamps struct {
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt"`
}

// Envelope is the uniform response body of every API endpoint.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ListParams constrains a list query.
type ListParams struct {
	Limit   int
	Offset  int
	Filters map[string]string
}

// AsMap flattens the params into string pairs, omitting zero values.
func (p ListParams) AsMap() map[string]string {
	out := make(map[string]string, len(p.Filters)+2)
	if p.Limit > 0 {
		out["limit"] = strconv.Itoa(p.Limit)
	}
	if p.Offset > 0 {
		out["offset"] = strconv.Itoa(p.Offset)
	}
	for k, v := range p.Filters {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func optString(patch *string, current *string) *string {
	if patch == nil {
		return current
	}
	if *patch == "" {
		return nil
	}
	v := *patch
	return &v
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
