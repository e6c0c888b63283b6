package godown

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateGodownRequest struct {
	Name string `json:"name"`
}

// GET /api/unloading-godowns
func ListGodownsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		godowns, err := List(db)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"success": true,
			"godowns": godowns,
		})
	}
}

// POST /api/unloading-godowns
//
// Adding a name that already exists returns the existing row with 200.
func CreateGodownHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateGodownRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		g, created, err := Ensure(db, body.Name)
		if errors.Is(err, ErrNameRequired) {
			return fiber.NewError(fiber.StatusBadRequest, "Godown name is required")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		if !created {
			return c.JSON(fiber.Map{
				"success": true,
				"godown":  g,
				"message": "Godown already exists",
			})
		}

		godowns, err := List(db)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"godown":  g,
			"godowns": godowns,
			"message": "Godown added successfully",
		})
	}
}
