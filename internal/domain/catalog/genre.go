package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Genre struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre string `gorm:"uniqueIndex;not null" json:"nombre"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Genre) TableName() string { return "generos" }

func (g *Genre) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

type Tag struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre string `gorm:"uniqueIndex;not null" json:"nombre"`
	Color  string `gorm:"not null;default:'#3b82f6'" json:"color"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Tag) TableName() string { return "tags" }

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
