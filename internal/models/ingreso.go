package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IngresoEstado is the collection status of an issued invoice.
type IngresoEstado string

const (
	IngresoPendiente IngresoEstado = "pendiente"
	IngresoCobrada   IngresoEstado = "cobrada"
)

// Ingreso is an income record, usually an invoice issued to a client.
type Ingreso struct {
	Base
	Concepto      string          `gorm:"not null" json:"concepto"`
	Cantidad      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"cantidad"`
	IVA           decimal.Decimal `gorm:"column:iva;type:numeric(5,2);not null;default:0" json:"iva"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Fecha         time.Time       `gorm:"not null;index" json:"fecha"`
	Cliente       string          `json:"cliente"`
	NumeroFactura string          `gorm:"index" json:"numero_factura,omitempty"`
	Estado        IngresoEstado   `gorm:"not null;default:'pendiente';index" json:"estado"`
	Categoria     string          `json:"categoria,omitempty"`
	Origen        string          `json:"origen,omitempty"`
	ProyectoID    string          `gorm:"index" json:"proyecto_id,omitempty"`
	CobradaAt     *time.Time      `json:"cobrada_at,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

// Date, Amount, Project and Pending satisfy finance.Record.
func (i Ingreso) Date() time.Time         { return i.Fecha }
func (i Ingreso) Amount() decimal.Decimal { return i.Cantidad }
func (i Ingreso) Project() string         { return i.ProyectoID }
func (i Ingreso) Pending() bool           { return i.Estado == IngresoPendiente }
