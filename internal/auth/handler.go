package auth

import (
	"strings"

	"ricemill-backend/internal/config"
	"ricemill-backend/internal/database"
	"ricemill-backend/internal/models"
	"ricemill-backend/internal/timeutil"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	FullName string          `json:"full_name"`
	Role     models.UserRole `json:"role"`
}

func userJSON(u *models.User) fiber.Map {
	return fiber.Map{
		"id":         u.ID,
		"username":   u.Username,
		"full_name":  u.FullName,
		"role":       u.Role,
		"is_active":  u.IsActive,
		"last_login": u.LastLogin,
	}
}

func LoginHandler(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Username = strings.TrimSpace(body.Username)
		if body.Username == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Username and password are required")
		}

		var user models.User
		if err := db.Where("username = ?", body.Username).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password")
		}
		if !user.IsActive {
			return fiber.NewError(fiber.StatusForbidden, "Account is disabled")
		}

		token, err := GenerateToken(cfg.JWT.Secret, cfg.JWT.Expire, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token could not be created")
		}

		now := timeutil.Now()
		user.LastLogin = &now
		db.Model(&user).Update("last_login", now)

		return c.JSON(fiber.Map{
			"success": true,
			"token":   token,
			"user":    userJSON(&user),
		})
	}
}

func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			// fall back to what the token says
			return c.JSON(fiber.Map{
				"id":       userID,
				"username": c.Locals(CtxUsernameKey),
				"role":     c.Locals(CtxUserRoleKey),
			})
		}
		return c.JSON(userJSON(&user))
	}
}

// POST /api/admin/users
func CreateUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Username = strings.TrimSpace(body.Username)
		if body.Username == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Username and password are required")
		}
		if body.Role == "" {
			body.Role = models.RoleUser
		}
		if body.Role != models.RoleAdmin && body.Role != models.RoleUser {
			return fiber.NewError(fiber.StatusBadRequest, "Role must be admin or user")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Password could not be hashed")
		}

		user := models.User{
			Username:     body.Username,
			PasswordHash: string(hash),
			FullName:     body.FullName,
			Role:         body.Role,
			IsActive:     true,
		}
		if err := db.Create(&user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "Username already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "User could not be created")
		}

		return c.Status(fiber.StatusCreated).JSON(userJSON(&user))
	}
}
