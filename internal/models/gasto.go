package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GastoEstado is the payment status of a received invoice.
type GastoEstado string

const (
	GastoPendiente GastoEstado = "pendiente"
	GastoPagada    GastoEstado = "pagada"
)

// Gasto is an expense record, usually an invoice received from a provider.
type Gasto struct {
	Base
	Concepto      string          `gorm:"not null" json:"concepto"`
	Cantidad      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"cantidad"`
	IVA           decimal.Decimal `gorm:"column:iva;type:numeric(5,2);not null;default:0" json:"iva"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Fecha         time.Time       `gorm:"not null;index" json:"fecha"`
	Proveedor     string          `json:"proveedor"`
	NumeroFactura string          `json:"numero_factura,omitempty"`
	Estado        GastoEstado     `gorm:"not null;default:'pendiente';index" json:"estado"`
	Categoria     string          `json:"categoria,omitempty"`
	Tipo          string          `json:"tipo,omitempty"`
	ProyectoID    string          `gorm:"index" json:"proyecto_id,omitempty"`
	PagadaAt      *time.Time      `json:"pagada_at,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

// Date, Amount, Project and Pending satisfy finance.Record.
func (g Gasto) Date() time.Time         { return g.Fecha }
func (g Gasto) Amount() decimal.Decimal { return g.Cantidad }
func (g Gasto) Project() string         { return g.ProyectoID }
func (g Gasto) Pending() bool           { return g.Estado == GastoPendiente }
