package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ecoaceite/internal/models"
)

const csvDateLayout = "2006-01-02"

var ingresoCSVHeader = []string{
	"id", "fecha", "concepto", "cliente", "numero_factura", "cantidad", "iva", "total",
	"estado", "categoria", "origen", "proyecto_id", "cobrada_at",
}

var gastoCSVHeader = []string{
	"id", "fecha", "concepto", "proveedor", "numero_factura", "cantidad", "iva", "total",
	"estado", "categoria", "tipo", "proyecto_id", "pagada_at",
}

func ingresoCSVRow(i models.Ingreso) []string {
	return []string{
		i.ID, i.Fecha.Format(csvDateLayout), i.Concepto, i.Cliente, i.NumeroFactura,
		i.Cantidad.StringFixed(2), i.IVA.StringFixed(2), i.Total.StringFixed(2),
		string(i.Estado), i.Categoria, i.Origen, i.ProyectoID, formatOptionalDate(i.CobradaAt),
	}
}

func gastoCSVRow(g models.Gasto) []string {
	return []string{
		g.ID, g.Fecha.Format(csvDateLayout), g.Concepto, g.Proveedor, g.NumeroFactura,
		g.Cantidad.StringFixed(2), g.IVA.StringFixed(2), g.Total.StringFixed(2),
		string(g.Estado), g.Categoria, g.Tipo, g.ProyectoID, formatOptionalDate(g.PagadaAt),
	}
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(csvDateLayout)
}

// writeCSV streams rows as an attachment. Headers are already sent when a
// write fails, so the error is only recorded on the context.
func writeCSV(c *gin.Context, filename string, header []string, rows [][]string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(header); err != nil {
		_ = c.Error(err)
		return
	}
	if err := w.WriteAll(rows); err != nil {
		_ = c.Error(err)
	}
}
