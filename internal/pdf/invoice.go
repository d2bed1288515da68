// Package pdf renders printable invoices for income records.
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"ecoaceite/internal/models"
)

var (
	colorPrimary = &props.Color{Red: 46, Green: 125, Blue: 50}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// Issuer is the association data printed in the invoice header.
type Issuer struct {
	Name    string
	CIF     string
	Address string
	Email   string
}

// InvoiceGenerator renders an income record as a PDF document.
type InvoiceGenerator interface {
	Invoice(ctx context.Context, ingreso *models.Ingreso) ([]byte, error)
}

// MarotoGenerator implements InvoiceGenerator with maroto v2.
type MarotoGenerator struct {
	issuer Issuer
}

// NewMarotoGenerator builds a generator that prints issuer on every invoice.
func NewMarotoGenerator(issuer Issuer) *MarotoGenerator {
	return &MarotoGenerator{issuer: issuer}
}

// Invoice returns the PDF bytes for ingreso.
func (g *MarotoGenerator) Invoice(_ context.Context, ingreso *models.Ingreso) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).WithRightMargin(15).
		WithTopMargin(15).WithBottomMargin(15).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+InvoiceNumber(ingreso), true).
		WithAuthor(g.issuer.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.issuer, ingreso))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(clientRow(ingreso))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(conceptHeaderRow(), conceptRow(ingreso))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(ingreso))
	m.AddRows(footerRow(ingreso))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate invoice: %w", err)
	}
	return doc.GetBytes(), nil
}

// InvoiceNumber returns the printed invoice number, falling back to a short
// form of the record id when none was assigned.
func InvoiceNumber(ingreso *models.Ingreso) string {
	if ingreso.NumeroFactura != "" {
		return ingreso.NumeroFactura
	}
	id := strings.ReplaceAll(ingreso.ID, "-", "")
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "ING-" + strings.ToUpper(id)
}

func headerRow(issuer Issuer, ingreso *models.Ingreso) core.Row {
	return row.New(22).Add(
		col.New(7).Add(
			text.New(issuer.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("CIF: "+nonEmpty(issuer.CIF, "-"), props.Text{Size: 8, Top: 9, Color: colorGray}),
			text.New(nonEmpty(issuer.Address, "-")+"  |  "+nonEmpty(issuer.Email, "-"), props.Text{Size: 8, Top: 14, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("FACTURA", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(InvoiceNumber(ingreso), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7}),
			text.New("Fecha: "+ingreso.Fecha.Format("02/01/2006"), props.Text{Size: 8, Align: align.Right, Top: 15, Color: colorGray}),
		),
	)
}

func clientRow(ingreso *models.Ingreso) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(ingreso.Cliente, "-"), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		),
	)
}

func conceptHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Align: a, Top: 2}))
	}
	return row.New(8).Add(
		h("Concepto", 6, align.Left),
		h("Base", 2, align.Right),
		h("IVA", 2, align.Right),
		h("Total", 2, align.Right),
	)
}

func conceptRow(ingreso *models.Ingreso) core.Row {
	cell := func(value string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(value, props.Text{Size: 8, Align: a, Top: 1}))
	}
	return row.New(8).Add(
		cell(ingreso.Concepto, 6, align.Left),
		cell(FormatEuro(ingreso.Cantidad), 2, align.Right),
		cell(ingreso.IVA.StringFixed(0)+"%", 2, align.Right),
		cell(FormatEuro(ingreso.Total), 2, align.Right),
	)
}

func totalsRow(ingreso *models.Ingreso) core.Row {
	label := func(s string, bold bool) core.Component {
		p := props.Text{Size: 9, Align: align.Right, Right: 2}
		if bold {
			p.Style = fontstyle.Bold
			p.Color = colorPrimary
		}
		return text.New(s, p)
	}
	taxes := ingreso.Total.Sub(ingreso.Cantidad)

	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Base imponible:", false),
			text.New("IVA ("+ingreso.IVA.StringFixed(0)+"%):", props.Text{Size: 9, Align: align.Right, Right: 2, Top: 6}),
			text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 2, Top: 12, Color: colorPrimary}),
		),
		col.New(3).Add(
			text.New(FormatEuro(ingreso.Cantidad), props.Text{Size: 9, Align: align.Right}),
			text.New(FormatEuro(taxes), props.Text{Size: 9, Align: align.Right, Top: 6}),
			text.New(FormatEuro(ingreso.Total), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 12, Color: colorPrimary}),
		),
	)
}

func footerRow(ingreso *models.Ingreso) core.Row {
	status := "Pendiente de cobro"
	if ingreso.Estado == models.IngresoCobrada {
		status = "Cobrada"
		if ingreso.CobradaAt != nil {
			status += " el " + ingreso.CobradaAt.Format("02/01/2006")
		}
	}
	return row.New(12).Add(col.New(12).Add(
		text.New("Estado: "+status, props.Text{Size: 8, Color: colorGray, Top: 4}),
	))
}

// FormatEuro prints d in Spanish notation, e.g. 1.234,50 €.
func FormatEuro(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "," + frac + " €"
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
