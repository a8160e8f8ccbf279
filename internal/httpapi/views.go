// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package httpapi

import (
	"time"

	"github.com/rosterd/rosterd/internal/auth"
)

// userView is the unredacted outward form of a directory record. The
// password digest never appears in any view.
type userView struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      *string   `json:"email,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Class      string    `json:"class"`
	Group      string    `json:"group"`
	Role       string    `json:"role"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	UpdatedBy  *int64    `json:"updated_by,omitempty"`
}

// listedUserView is a list entry for non-privileged requesters: no
// username, group, or role.
type listedUserView struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Department string  `json:"department"`
	Class      string  `json:"class"`
}

// publicUserView is the single-record view served to anonymous and
// unrelated callers: no contact details, class, group, or role.
type publicUserView struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

func fullView(u *auth.User) userView {
	tags := u.Tags
	if tags == nil {
		tags = []string{}
	}
	return userView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Phone:      u.Phone,
		Name:       u.Name,
		Department: u.Department,
		Class:      u.Class,
		Group:      u.Group,
		Role:       string(u.Role),
		Tags:       tags,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
		UpdatedBy:  u.UpdatedBy,
	}
}

func listedView(u *auth.User) listedUserView {
	return listedUserView{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Department: u.Department,
		Class:      u.Class,
	}
}

func publicView(u *auth.User) publicUserView {
	return publicUserView{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		Department: u.Department,
	}
}
