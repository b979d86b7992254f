package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lifecycle states of a serie. Stored as text, opaque business data.
const (
	EstadoEnEmision    = "EN_EMISION"
	EstadoFinalizada   = "FINALIZADA"
	EstadoProximamente = "PROXIMAMENTE"
	EstadoCancelada    = "CANCELADA"
	EstadoPausada      = "PAUSADA"
	EstadoPiloto       = "PILOTO"
)

var estados = map[string]bool{
	EstadoEnEmision:    true,
	EstadoFinalizada:   true,
	EstadoProximamente: true,
	EstadoCancelada:    true,
	EstadoPausada:      true,
	EstadoPiloto:       true,
}

func ValidEstado(v string) bool { return estados[v] }

type Serie struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	Titulo           string     `gorm:"uniqueIndex;not null" json:"titulo"`
	Sinopsis         *string    `json:"sinopsis,omitempty"`
	Anio             *int       `gorm:"column:anio" json:"año,omitempty"`
	Temporadas       int        `gorm:"not null;default:1" json:"temporadas"`
	Rating           *float64   `json:"rating,omitempty"`
	Pais             *string    `json:"pais,omitempty"`
	TrailerURL       *string    `gorm:"column:trailer_url" json:"trailerUrl,omitempty"`
	Estado           string     `gorm:"type:text;not null;default:'EN_EMISION'" json:"estado"`
	Creador          *string    `json:"creador,omitempty"`
	Productora       *string    `json:"productora,omitempty"`
	DuracionPromedio *int       `json:"duracionPromedio,omitempty"`
	FechaEstreno     *time.Time `gorm:"type:date" json:"fechaEstreno,omitempty"`

	// Poster and Banner only ever hold paths produced by the media store
	// (or nil), never a client-supplied local path.
	Poster *string `json:"poster,omitempty"`
	Banner *string `json:"banner,omitempty"`

	Generos []Genre      `gorm:"many2many:serie_generos;constraint:OnDelete:CASCADE;" json:"generos,omitempty"`
	Tags    []Tag        `gorm:"many2many:serie_tags;constraint:OnDelete:CASCADE;" json:"tags,omitempty"`
	Actores []SerieActor `gorm:"foreignKey:SerieID;constraint:OnDelete:CASCADE;" json:"actores,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Serie) TableName() string { return "series" }

func (s *Serie) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
