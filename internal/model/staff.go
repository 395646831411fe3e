package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Staff represents an authenticated employee
type Staff struct {
	BaseModel
	Auditable
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password     string     `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	FullName     string     `gorm:"type:varchar(255);not null" json:"full_name"`
	PhoneNumber  string     `gorm:"type:varchar(20)" json:"phone_number"`
	Role         string     `gorm:"type:varchar(16);not null" json:"role"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	TokenVersion string     `gorm:"type:varchar(64);not null;default:''" json:"-"` // For single session enforcement
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func (Staff) TableName() string { return "staff" }

// SetPassword hashes and sets the staff member's password
func (s *Staff) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (s *Staff) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(s.Password), []byte(password))
	return err == nil
}

// Privileges returns the privilege codes granted by the staff member's role.
func (s *Staff) Privileges() []string {
	return PrivilegesFor(s.Role)
}

func (s *Staff) HasPrivilege(code string) bool {
	for _, p := range s.Privileges() {
		if p == code {
			return true
		}
	}
	return false
}

// StaffResponse is used for API responses (without sensitive data)
type StaffResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	Privileges  []string   `json:"privileges"`
}

// ToResponse converts Staff to StaffResponse
func (s *Staff) ToResponse() StaffResponse {
	return StaffResponse{
		ID:          s.ID,
		Email:       s.Email,
		FullName:    s.FullName,
		PhoneNumber: s.PhoneNumber,
		Role:        s.Role,
		IsActive:    s.IsActive,
		LastLoginAt: s.LastLoginAt,
		Privileges:  s.Privileges(),
	}
}
