package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectEstado is the lifecycle status of a project.
type ProjectEstado string

const (
	ProjectActivo     ProjectEstado = "activo"
	ProjectPendiente  ProjectEstado = "pendiente"
	ProjectCompletado ProjectEstado = "completado"
	ProjectCancelado  ProjectEstado = "cancelado"
)

// Project groups income and expense records through their proyecto_id.
// Profitability is derived on read and never stored.
type Project struct {
	Base
	Nombre      string          `gorm:"not null" json:"nombre"`
	Cliente     string          `json:"cliente"`
	Descripcion string          `json:"descripcion,omitempty"`
	Presupuesto decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"presupuesto"`
	FechaInicio time.Time       `gorm:"not null" json:"fecha_inicio"`
	FechaFin    *time.Time      `json:"fecha_fin,omitempty"`
	Estado      ProjectEstado   `gorm:"not null;default:'pendiente';index" json:"estado"`
}
