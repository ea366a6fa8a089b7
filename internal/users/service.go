package users

import (
	"errors"
	"fmt"
	"strings"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/database"
	"asset-tracker/internal/models"
	"asset-tracker/internal/request"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateRequest struct {
	Username string          `json:"username" validate:"required,min=3,max=100"`
	Password string          `json:"password" validate:"required,min=6,max=72"`
	Name     string          `json:"name" validate:"max=100"`
	Role     models.UserRole `json:"role" validate:"omitempty,oneof=admin user"`
	Branch   string          `json:"branch" validate:"max=100"`
}

type UpdateRequest struct {
	Name     *string          `json:"name" validate:"omitempty,max=100"`
	Role     *models.UserRole `json:"role" validate:"omitempty,oneof=admin user"`
	Branch   *string          `json:"branch" validate:"omitempty,max=100"`
	Password *string          `json:"password" validate:"omitempty,min=6,max=72"`
}

type Service struct {
	store *database.Store
	log   *logrus.Logger
}

func NewService(store *database.Store, log *logrus.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) List() ([]models.User, error) {
	users := make([]models.User, 0)
	if err := s.store.DB().Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, apperr.Internal("list users", err)
	}
	return users, nil
}

func (s *Service) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := s.store.DB().First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	return &u, nil
}

func (s *Service) Create(req CreateRequest) (*models.User, error) {
	if err := request.Validate(req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	u := models.User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		Branch:       strings.TrimSpace(req.Branch),
	}
	if err := s.store.DB().Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict(fmt.Sprintf("username %s already exists", u.Username))
		}
		return nil, apperr.Internal("create user", err)
	}
	s.log.WithFields(logrus.Fields{"username": u.Username, "role": u.Role}).Info("user created")
	return &u, nil
}

func (s *Service) Update(username string, req UpdateRequest) (*models.User, error) {
	if err := request.Validate(req); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Branch != nil {
		updates["branch"] = strings.TrimSpace(*req.Branch)
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperr.Internal("hash password", err)
		}
		updates["password_hash"] = string(hash)
	}

	var u models.User
	err := s.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user not found")
			}
			return apperr.Internal("load user", err)
		}
		if len(updates) == 0 {
			return nil
		}
		if u.Role == models.RoleAdmin && req.Role != nil && *req.Role != models.RoleAdmin {
			if err := ensureAnotherAdmin(tx); err != nil {
				return err
			}
		}
		if err := tx.Model(&u).Updates(updates).Error; err != nil {
			return apperr.Internal("update user", err)
		}
		return tx.First(&u, u.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete refuses to remove the last admin so the system always has one.
func (s *Service) Delete(username string) error {
	err := s.store.DB().Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Where("username = ?", username).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user not found")
			}
			return apperr.Internal("load user", err)
		}
		if u.Role == models.RoleAdmin {
			if err := ensureAnotherAdmin(tx); err != nil {
				return err
			}
		}
		if err := tx.Delete(&u).Error; err != nil {
			return apperr.Internal("delete user", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithField("username", username).Info("user deleted")
	return nil
}

func ensureAnotherAdmin(tx *gorm.DB) error {
	var admins int64
	if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		return apperr.Internal("count admins", err)
	}
	if admins <= 1 {
		return apperr.Conflict("cannot remove the last admin")
	}
	return nil
}
