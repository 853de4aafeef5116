// Package pdf genera el comprobante de apertura de cuenta corriente.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Banco + título       │  N° Cuenta + Fecha           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TITULAR: dueño / empresa                                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Concepto | Valor                                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SALDO INICIAL                                               │
//	│  FOOTER: QR de verificación + leyenda                        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
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

	"github.com/okojic12722rn/banka-provisioning/internal/application/provisioning"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/entity"
)

var _ provisioning.ReceiptRenderer = (*MarotoReceiptGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// MarotoReceiptGenerator implementa provisioning.ReceiptRenderer con Maroto v2.
type MarotoReceiptGenerator struct {
	bankName string
}

// NewMarotoReceiptGenerator construye el generador. bankName va en el encabezado.
func NewMarotoReceiptGenerator(bankName string) *MarotoReceiptGenerator {
	return &MarotoReceiptGenerator{bankName: bankName}
}

// RenderReceipt genera el PDF y devuelve sus bytes.
func (g *MarotoReceiptGenerator) RenderReceipt(_ context.Context, r *provisioning.Receipt) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de apertura de cuenta", true).
		WithAuthor(g.bankName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(holderRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(detailRows(r)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(balanceRow(r))
	m.AddRows(line.NewRow(3))
	m.AddRows(footerRows(r)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *MarotoReceiptGenerator) headerRow(r *provisioning.Receipt) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(g.bankName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Comprobante de apertura de cuenta corriente", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("CUENTA N°", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(r.AccountID, "pendiente de asignación"), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+r.IssuedAt.Format("02.01.2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func holderRow(r *provisioning.Receipt) core.Row {
	holder := "Cliente N° " + r.OwnerID
	if r.CompanyID != "" {
		holder += "   |   Empresa N° " + r.CompanyID
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("TITULAR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(holder, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		),
	)
}

func detailRows(r *provisioning.Receipt) []core.Row {
	card := "No"
	if r.CreateCard {
		card = "Sí"
	}
	items := [][2]string{
		{"Tipo de cuenta", entity.AccountTypeCurrent},
		{"Subtipo", string(r.Subtype)},
		{"Moneda", r.Currency},
		{"Estado", entity.AccountStatusActive},
		{"Límite diario", formatAmount(decimal.Zero)},
		{"Límite mensual", formatAmount(decimal.Zero)},
		{"Emisión de tarjeta", card},
	}
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, row.New(7).Add(
			col.New(6).Add(text.New(it[0], props.Text{Size: 9, Top: 1, Left: 1, Color: colorGray})),
			col.New(6).Add(text.New(it[1], props.Text{Size: 9, Top: 1, Align: align.Right, Right: 1})),
		))
	}
	return rows
}

func balanceRow(r *provisioning.Receipt) core.Row {
	return row.New(12).Add(
		col.New(6).Add(text.New("SALDO INICIAL:", props.Text{
			Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary, Top: 2, Right: 2,
		})),
		col.New(6).Add(text.New(formatAmount(r.Balance)+" "+r.Currency, props.Text{
			Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary, Top: 2, Right: 1,
		})),
	)
}

func footerRows(r *provisioning.Receipt) []core.Row {
	verify := fmt.Sprintf("session=%s;account=%s;owner=%s", r.SessionID, r.AccountID, r.OwnerID)
	return []core.Row{
		row.New(40).Add(
			col.New(4).Add(code.NewQr(verify, props.Rect{Percent: 95, Center: true})),
			col.New(8).Add(
				text.New("Operador: "+r.OperatorID, props.Text{Size: 8, Top: 4, Left: 3, Color: colorGray}),
				text.New("Sesión: "+r.SessionID, props.Text{Size: 8, Top: 10, Left: 3, Color: colorGray}),
				text.New("Conserve este comprobante como constancia de la apertura.", props.Text{
					Style: fontstyle.Bold, Size: 9, Top: 20, Left: 3, Color: colorPrimary,
				}),
			),
		),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatAmount formatea con punto de miles y coma decimal. Ej: 1234567.5 → "1.234.567,50".
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "," + frac
}
