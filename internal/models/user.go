package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent    UserRole = "STUDENT"
	RoleAdmin      UserRole = "ADMIN"
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
)

// IsAdmin reports whether the role may reach admin-only routes.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type AuthProvider string

const (
	ProviderEmail  AuthProvider = "EMAIL"
	ProviderGoogle AuthProvider = "GOOGLE"
	ProviderSSO    AuthProvider = "SSO"
)

type User struct {
	ID           string       `json:"id" gorm:"primaryKey;size:36"`
	FullName     string       `json:"fullName" gorm:"not null;size:100"`
	Email        string       `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string       `json:"-" gorm:"size:255"`
	Role         UserRole     `json:"role" gorm:"not null;size:20;default:STUDENT;index"`
	Provider     AuthProvider `json:"provider" gorm:"not null;size:20;default:EMAIL"`
	GoogleID     *string      `json:"-" gorm:"size:255;index"`
	IsActive     bool         `json:"isActive" gorm:"not null;default:true"`

	EmailVerified bool       `json:"emailVerified" gorm:"default:false"`
	LastLoginAt   *time.Time `json:"lastLoginAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// OTPCode stores a bcrypt hash of a one-time login code.
type OTPCode struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Email     string     `json:"email" gorm:"not null;size:255;index"`
	CodeHash  string     `json:"-" gorm:"not null;size:255"`
	Purpose   string     `json:"purpose" gorm:"not null;size:20"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"not null;index"`
	UsedAt    *time.Time `json:"usedAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (OTPCode) TableName() string {
	return "otp_codes"
}

const OTPPurposeLogin = "LOGIN"
