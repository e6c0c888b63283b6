package models

import "time"

// UnloadingGodown is a warehouse paddy can be unloaded into.
type UnloadingGodown struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultGodowns are seeded into an empty table.
var DefaultGodowns = []string{"Godown A", "Godown B", "Main Warehouse", "Storage Unit 1"}
