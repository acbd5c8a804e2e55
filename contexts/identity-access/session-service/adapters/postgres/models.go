package postgresadapter

import (
	"time"

	"hireloop/contexts/identity-access/session-service/ports"
)

type userModel struct {
	UserID         string    `gorm:"column:user_id;primaryKey"`
	Email          string    `gorm:"column:email;uniqueIndex"`
	PasswordHash   string    `gorm:"column:password_hash"`
	FirstName      string    `gorm:"column:first_name"`
	LastName       string    `gorm:"column:last_name"`
	Role           string    `gorm:"column:role"`
	OrganizationID string    `gorm:"column:organization_id"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

func userModelFromPort(user ports.User) userModel {
	return userModel{
		UserID:         user.UserID,
		Email:          user.Email,
		PasswordHash:   user.PasswordHash,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		CreatedAt:      user.CreatedAt.UTC(),
		UpdatedAt:      user.UpdatedAt.UTC(),
	}
}

func (m userModel) toPort() ports.User {
	return ports.User{
		UserID:         m.UserID,
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Role:           m.Role,
		OrganizationID: m.OrganizationID,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}
