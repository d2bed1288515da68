package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthSummary is the headline block of the admin dashboard.
type MonthSummary struct {
	Year              int             `json:"year"`
	Month             int             `json:"month"`
	Ingresos          decimal.Decimal `json:"ingresos"`
	Gastos            decimal.Decimal `json:"gastos"`
	Balance           decimal.Decimal `json:"balance"`
	PendienteCobro    decimal.Decimal `json:"pendiente_cobro"`
	PendientePago     decimal.Decimal `json:"pendiente_pago"`
	FacturasPendiente int             `json:"facturas_pendientes"`
}

// Summarize builds the MonthSummary for year/month from full record sets.
// Pending amounts cover every pending record, not only the month's.
func Summarize[I Record, G Record](ingresos []I, gastos []G, year int, month time.Month) MonthSummary {
	in := MonthlyTotal(ingresos, year, month)
	out := MonthlyTotal(gastos, year, month)
	pendingIn := PendingOnly(ingresos)
	pendingOut := PendingOnly(gastos)
	return MonthSummary{
		Year:              year,
		Month:             int(month),
		Ingresos:          in,
		Gastos:            out,
		Balance:           in.Sub(out),
		PendienteCobro:    Sum(pendingIn),
		PendientePago:     Sum(pendingOut),
		FacturasPendiente: len(pendingIn) + len(pendingOut),
	}
}

// ProjectFinancials is the derived view of a project's linked records.
type ProjectFinancials struct {
	ProjectID          string          `json:"project_id"`
	Ingresos           decimal.Decimal `json:"ingresos"`
	Gastos             decimal.Decimal `json:"gastos"`
	Beneficio          decimal.Decimal `json:"beneficio"`
	Rentabilidad       decimal.Decimal `json:"rentabilidad"`
	Presupuesto        decimal.Decimal `json:"presupuesto"`
	ConsumoPresupuesto decimal.Decimal `json:"consumo_presupuesto"`
}

// ForProject derives a project's totals, profitability and budget consumption.
func ForProject[I Record, G Record](projectID string, budget decimal.Decimal, ingresos []I, gastos []G) ProjectFinancials {
	in := ProjectTotal(ingresos, projectID)
	out := ProjectTotal(gastos, projectID)
	return ProjectFinancials{
		ProjectID:          projectID,
		Ingresos:           in,
		Gastos:             out,
		Beneficio:          in.Sub(out),
		Rentabilidad:       Profitability(in, out),
		Presupuesto:        budget,
		ConsumoPresupuesto: BudgetConsumption(out, budget),
	}
}
