package godown

import (
	"errors"
	"fmt"
	"strings"

	"ricemill-backend/internal/models"

	"gorm.io/gorm"
)

var ErrNameRequired = errors.New("godown name is required")

// List returns every godown ordered by name.
func List(db *gorm.DB) ([]models.UnloadingGodown, error) {
	var godowns []models.UnloadingGodown
	if err := db.Order("name ASC").Find(&godowns).Error; err != nil {
		return nil, fmt.Errorf("list godowns: %w", err)
	}
	return godowns, nil
}

// Ensure returns the godown called name, creating it when missing. created
// reports whether a row was inserted.
func Ensure(db *gorm.DB, name string) (g *models.UnloadingGodown, created bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, ErrNameRequired
	}

	var existing models.UnloadingGodown
	err = db.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find godown: %w", err)
	}

	g = &models.UnloadingGodown{Name: name}
	if err := db.Create(g).Error; err != nil {
		return nil, false, fmt.Errorf("create godown: %w", err)
	}
	return g, true, nil
}
