package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role types of an actor appearance in a serie.
const (
	RolPrincipal  = "PRINCIPAL"
	RolSecundario = "SECUNDARIO"
	RolRecurrente = "RECURRENTE"
)

var roles = map[string]bool{
	RolPrincipal:  true,
	RolSecundario: true,
	RolRecurrente: true,
}

func ValidTipoRol(v string) bool { return roles[v] }

type Actor struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre       string     `gorm:"uniqueIndex;not null" json:"nombre"`
	Nacionalidad *string    `json:"nacionalidad,omitempty"`
	Foto         *string    `json:"foto,omitempty"`
	FechaNac     *time.Time `json:"fechaNac,omitempty"`
	Biografia    *string    `json:"biografia,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Actor) TableName() string { return "actores" }

func (a *Actor) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// SerieActor is an appearance of an actor in a serie, with the character
// played and the kind of role.
type SerieActor struct {
	SerieID   string  `gorm:"type:uuid;primaryKey" json:"-"`
	ActorID   string  `gorm:"type:uuid;primaryKey" json:"actorId"`
	Personaje *string `json:"personaje,omitempty"`
	TipoRol   string  `gorm:"type:text;not null;default:'SECUNDARIO'" json:"tipoRol"`

	Actor *Actor `gorm:"foreignKey:ActorID" json:"actor,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (SerieActor) TableName() string { return "serie_actores" }
