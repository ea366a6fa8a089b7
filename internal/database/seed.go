package database

import (
	"fmt"

	"asset-tracker/internal/config"
	"asset-tracker/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var defaultAssetTypes = []models.AssetType{
	{Code: "computer", Name: "Computer", Description: "Laptops and desktops"},
	{Code: "monitor", Name: "Monitor", Description: "Displays"},
	{Code: "host", Name: "Host", Description: "Servers and desktop hosts"},
	{Code: "accessory", Name: "Accessory", Description: "Keyboards, mice and other peripherals"},
}

func seed(db *gorm.DB, cfg *config.Config, log *logrus.Logger) error {
	for _, t := range defaultAssetTypes {
		row := t
		if err := db.Where(models.AssetType{Code: t.Code}).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("seed asset type %s: %w", t.Code, err)
		}
	}

	var admins int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins > 0 {
		return nil
	}

	var existing models.User
	err := db.Where("username = ?", cfg.AdminUsername).Limit(1).Find(&existing).Error
	if err != nil {
		return fmt.Errorf("lookup admin: %w", err)
	}
	if existing.ID != 0 {
		log.WithField("username", existing.Username).Warn("no admin present, promoting existing user")
		return db.Model(&existing).Update("role", models.RoleAdmin).Error
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Username:     cfg.AdminUsername,
		PasswordHash: string(hash),
		Name:         "Administrator",
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.WithField("username", admin.Username).Info("default admin created")
	return nil
}
