package auth

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedUserRoles ensures the fixed role set exists.
func SeedUserRoles(db *gorm.DB) error {
	roles := []UserRole{
		{RoleName: "superadmin", Description: "Full platform access", CanRegisterPublicly: false, IsActive: true},
		{RoleName: "studioadmin", Description: "Manages schedule, content and bookings", CanRegisterPublicly: false, IsActive: true},
		{RoleName: "editor", Description: "Edits site content and classes", CanRegisterPublicly: false, IsActive: true},
		{RoleName: "viewer", Description: "Read-only back office access", CanRegisterPublicly: false, IsActive: true},
		{RoleName: "member", Description: "Studio member, can book classes", CanRegisterPublicly: true, IsActive: true},
	}

	for _, role := range roles {
		var existing UserRole
		err := db.Where("role_name = ?", role.RoleName).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
			log.Printf("✅ Seeded role: %s", role.RoleName)
		} else if err != nil {
			return err
		}
	}
	return nil
}

// SeedSuperAdminUser creates the initial superadmin account from env vars.
func SeedSuperAdminUser(db *gorm.DB) error {
	email := os.Getenv("SUPERADMIN_EMAIL")
	password := os.Getenv("SUPERADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ℹ️ SUPERADMIN_EMAIL/PASSWORD not set, skipping superadmin seed")
		return nil
	}

	var existing User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil // already seeded
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	var role UserRole
	if err := db.Where("role_name = ?", "superadmin").First(&role).Error; err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := User{
		FullName:     "Super Admin",
		Email:        email,
		PasswordHash: string(hash),
		RoleID:       role.ID,
		Status:       "active",
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded superadmin user: %s", email)
	return nil
}
