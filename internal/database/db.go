package database

import (
	"log"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// The role/permission join carries a granted flag, so it needs an
	// explicit join model instead of gorm's implicit one.
	if err := db.SetupJoinTable(&model.Role{}, "Permissions", &model.RolePermission{}); err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Organization{},
		&model.Permission{},
		&model.Role{},
		&model.RolePermission{},
		&model.User{},
		&model.RefreshToken{},
		&model.Jahrgang{},
		&model.KonfiProfile{},
		&model.Activity{},
		&model.KonfiActivity{},
		&model.BonusPoints{},
		&model.ActivityRequest{},
		&model.Badge{},
		&model.KonfiBadge{},
		&model.Event{},
		&model.EventBooking{},
		&model.Setting{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
