package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoaceite/internal/models"
)

func TestFormatEuro(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0,00 €"},
		{"12.5", "12,50 €"},
		{"1234.56", "1.234,56 €"},
		{"1234567", "1.234.567,00 €"},
		{"-980.1", "-980,10 €"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatEuro(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestInvoiceNumber(t *testing.T) {
	assert.Equal(t, "F-2024-007", InvoiceNumber(&models.Ingreso{NumeroFactura: "F-2024-007"}))

	ing := &models.Ingreso{}
	ing.ID = "0190a0e0-0000-7000-8000-00000000abcd"
	assert.Equal(t, "ING-0000ABCD", InvoiceNumber(ing))
}

func TestMarotoGenerator_Invoice(t *testing.T) {
	gen := NewMarotoGenerator(Issuer{Name: "Asociación Ecoaceite", CIF: "G12345678", Email: "info@ecoaceite.org"})

	cobrada := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	ing := &models.Ingreso{
		Concepto:      "Recogida de aceite usado - marzo",
		Cantidad:      decimal.RequireFromString("1000"),
		IVA:           decimal.NewFromInt(21),
		Total:         decimal.RequireFromString("1210"),
		Fecha:         time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Cliente:       "Hotel Sol",
		NumeroFactura: "F-2024-011",
		Estado:        models.IngresoCobrada,
		CobradaAt:     &cobrada,
	}

	doc, err := gen.Invoice(context.Background(), ing)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")), "expected a PDF document")
}
