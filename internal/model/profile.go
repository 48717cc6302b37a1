package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Profile holds the display attributes for a user. Exactly one exists per
// user and it is deleted together with the user.
type Profile struct {
	ID     int64      `db:"id" json:"-"`
	Name   string     `db:"name" json:"name"`
	Avatar *string    `db:"avatar" json:"avatar"`
	DOB    *time.Time `db:"dob" json:"dob"`
	Bio    *string    `db:"bio" json:"bio"`
	UserID int64      `db:"user_id" json:"-"`
}

// UpdateProfileRequest is the payload for PUT /api/profile.
type UpdateProfileRequest struct {
	Name string     `json:"name" validate:"required,max=128"`
	DOB  *time.Time `json:"dob"`
	Bio  *string    `json:"bio" validate:"omitempty,max=255"`
}

// ProfileResponse is the public profile view with graph counts.
type ProfileResponse struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	Profile     Profile `json:"profile"`
	Followers   int     `json:"followers"`
	Following   int     `json:"following"`
	IsFollowing *bool   `json:"isFollowing,omitempty"`
}

// GravatarURL derives the default content-addressed avatar from an email.
func GravatarURL(email string, size int) string {
	digest := md5.Sum([]byte(strings.ToLower(email)))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=%d&d=mm&r=pg",
		hex.EncodeToString(digest[:]), size)
}
