package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Convocatoria is a grant or subsidy announcement the association can apply to
// or publishes for its members.
type Convocatoria struct {
	Base
	Titulo        string          `gorm:"not null;uniqueIndex:uq_convocatorias_titulo_organismo" json:"titulo"`
	Descripcion   string          `json:"descripcion"`
	Organismo     string          `gorm:"uniqueIndex:uq_convocatorias_titulo_organismo" json:"organismo"`
	Importe       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"importe"`
	FechaApertura time.Time       `gorm:"not null" json:"fecha_apertura"`
	FechaCierre   *time.Time      `json:"fecha_cierre,omitempty"`
	URL           string          `json:"url,omitempty"`
	Activa        bool            `gorm:"default:true;index" json:"activa"`
}

// AcceptsApplications reports whether a solicitud may be filed at t.
func (c *Convocatoria) AcceptsApplications(t time.Time) bool {
	if !c.Activa || t.Before(c.FechaApertura) {
		return false
	}
	return c.FechaCierre == nil || !t.After(*c.FechaCierre)
}

// SolicitudEstado tracks the review of an application.
type SolicitudEstado string

const (
	SolicitudEnviada    SolicitudEstado = "enviada"
	SolicitudEnRevision SolicitudEstado = "en_revision"
	SolicitudAceptada   SolicitudEstado = "aceptada"
	SolicitudRechazada  SolicitudEstado = "rechazada"
)

// Solicitud is an application to a Convocatoria.
type Solicitud struct {
	Base
	ConvocatoriaID string          `gorm:"type:uuid;not null;index" json:"convocatoria_id"`
	UserID         string          `gorm:"size:128;not null;index" json:"user_id"`
	Entidad        string          `gorm:"not null" json:"entidad"`
	EmailContacto  string          `gorm:"not null" json:"email_contacto"`
	Telefono       string          `json:"telefono,omitempty"`
	Mensaje        string          `json:"mensaje,omitempty"`
	Estado         SolicitudEstado `gorm:"not null;default:'enviada';index" json:"estado"`

	Convocatoria *Convocatoria `gorm:"foreignKey:ConvocatoriaID" json:"convocatoria,omitempty"`
}
