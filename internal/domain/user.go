package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type User struct {
	ID           uuid.UUID
	Email        string
	Username     string
	FirstName    string
	LastName     string
	Role         Role
	Bio          string
	PasswordHash string
	IsSuperuser  bool
	DateJoined   time.Time
}

func NewUser(email, username, firstName, lastName string) *User {
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		username = email
	}
	return &User{
		ID:         uuid.New(),
		Email:      email,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		Role:       RoleUser,
		DateJoined: time.Now().UTC(),
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PromoteToAdmin grants the admin role; superuser additionally allows creating other admins.
func (u *User) PromoteToAdmin(superuser bool) {
	u.Role = RoleAdmin
	if superuser {
		u.IsSuperuser = true
	}
}
