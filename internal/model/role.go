package model

import (
	"errors"
	"fmt"
)

var ErrUnknownRole = errors.New("unknown role")

// Role 只允許 admin / user 兩種值
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole 把字串轉成 Role，未知的值回傳 ErrUnknownRole
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

func (r Role) String() string { return string(r) }
