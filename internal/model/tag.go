package model

import "errors"

// Tag is a followable topic. Users follow tags through a toggled edge,
// exactly like post likes.
type Tag struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	IsFollowing *bool  `json:"isFollowing,omitempty"`
}

// CreateTagRequest enforces the tag name format: 2-16 alphanumeric chars.
type CreateTagRequest struct {
	Name string `json:"name" validate:"required,min=2,max=16,alphanum"`
}

var (
	ErrTagNotFound = errors.New("tag not found")
	ErrTagExists   = errors.New("that tag already exists")
)
