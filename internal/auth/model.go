package auth

import "time"

// User represents a back-office user or a registered studio member
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FullName     string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Phone        string    `gorm:"type:varchar(20)" json:"phone"`
	RoleID       uint      `gorm:"not null" json:"role_id"`
	Role         UserRole  `gorm:"foreignKey:RoleID" json:"role"`
	Status       string    `gorm:"type:varchar(20);default:'active'" json:"status"` // active / inactive
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserRole represents the user_roles table
type UserRole struct {
	ID                  uint   `gorm:"primaryKey" json:"id"`
	RoleName            string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description         string `gorm:"type:varchar(255)" json:"description"`
	CanRegisterPublicly bool   `gorm:"default:false" json:"can_register_publicly"`
	IsActive            bool   `gorm:"default:true" json:"is_active"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// PublicRoleResponse is the reduced role view for the registration page
type PublicRoleResponse struct {
	ID          uint   `json:"id"`
	RoleName    string `json:"role_name"`
	Description string `json:"description"`
}
