package auth

import (
	"errors"
	"strings"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/config"
	"asset-tracker/internal/database"
	"asset-tracker/internal/models"
	"asset-tracker/internal/request"
	"asset-tracker/internal/response"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func Login(store *database.Store, cfg *config.Config, req LoginRequest) (*LoginResponse, error) {
	username := strings.TrimSpace(req.Username)

	var user models.User
	err := store.DB().Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("invalid username or password")
	}
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("invalid username or password")
	}

	token, err := GenerateToken(cfg.JWTSecret, cfg.JWTExpiresIn, &user)
	if err != nil {
		return nil, apperr.Internal("sign token", err)
	}
	return &LoginResponse{Token: token, User: user}, nil
}

func LoginHandler(store *database.Store, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		resp, err := Login(store, cfg, body)
		if err != nil {
			return err
		}
		return response.MessageData(c, "login successful", resp)
	}
}

// StatusHandler reports the user behind a still-valid token.
func StatusHandler(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := MustPrincipal(c)
		if err != nil {
			return err
		}
		var user models.User
		err = store.DB().First(&user, p.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Unauthorized("user no longer exists")
		}
		if err != nil {
			return apperr.Internal("load user", err)
		}
		return response.OK(c, user)
	}
}
