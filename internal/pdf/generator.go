// Package pdf renders snapshot exports with maroto/v2. A document carries the
// location header, one table per entity group, the icon legend, a QR code of
// the share link and a branding footer on every page.
package pdf

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"areabutler_backend/internal/exports"
	"areabutler_backend/platform/phone"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/skip2/go-qrcode"
)

// ── Colour palette ──────────────────────────────────────────────────────

var (
	colorPrimary   = &props.Color{Red: 17, Green: 24, Blue: 39}    // near-black
	colorSecondary = &props.Color{Red: 107, Green: 114, Blue: 128} // gray-500
	colorAccent    = &props.Color{Red: 0, Green: 52, Blue: 79}     // default brand petrol
	colorTableHead = &props.Color{Red: 241, Green: 245, Blue: 249} // slate-100
	colorTableAlt  = &props.Color{Red: 249, Green: 250, Blue: 251} // gray-50
	colorBorder    = &props.Color{Red: 226, Green: 232, Blue: 240} // slate-200
)

// RowsPerPage is the number of table body rows that fit below the header.
const RowsPerPage = 32

const qrSize = 256

// ── Data struct ─────────────────────────────────────────────────────────

// SnapshotDocument holds everything needed to render a snapshot export.
type SnapshotDocument struct {
	Title        string
	Address      string
	CreatedAt    time.Time
	Data         exports.ExportData
	ShareURL     string
	BrandName    string
	ContactPhone string
	// PrimaryColor is a "#rrggbb" hex string; empty or malformed falls back to the default accent.
	PrimaryColor string
}

// Generate renders the document to PDF bytes.
func Generate(doc SnapshotDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(12).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)
	accent := parseColor(doc.PrimaryColor)

	if err := m.RegisterFooter(buildFooter(doc)); err != nil {
		return nil, fmt.Errorf("register footer: %w", err)
	}

	pages := exports.Paginate(doc.Data, RowsPerPage)
	for i, p := range pages {
		var rows []core.Row
		if i == 0 {
			header, err := buildHeader(doc, accent)
			if err != nil {
				return nil, err
			}
			rows = append(rows, header...)
		}
		for _, table := range p.Tables {
			rows = append(rows, buildTable(table, accent)...)
			rows = append(rows, row.New(4))
		}
		if i == len(pages)-1 {
			rows = append(rows, buildLegend(doc.Data.Legend, accent)...)
		}
		m.AddPages(page.New().Add(rows...))
	}

	document, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}

	return document.GetBytes(), nil
}

// ── Header ──────────────────────────────────────────────────────────────

func buildHeader(doc SnapshotDocument, accent *props.Color) ([]core.Row, error) {
	title := doc.Title
	if title == "" {
		title = "Standortanalyse"
	}

	info := col.New(9).Add(
		text.New(doc.BrandName, props.Text{Size: 8, Style: fontstyle.Bold, Color: accent}),
		text.New(title, props.Text{Size: 18, Style: fontstyle.Bold, Color: colorPrimary, Top: 5}),
		text.New(doc.Address, props.Text{Size: 10, Color: colorSecondary, Top: 15}),
		text.New("Stand: "+doc.CreatedAt.Format("02.01.2006"), props.Text{Size: 8, Color: colorSecondary, Top: 21}),
	)

	qrCol := col.New(3)
	if doc.ShareURL != "" {
		png, err := qrcode.Encode(doc.ShareURL, qrcode.Medium, qrSize)
		if err != nil {
			return nil, fmt.Errorf("encode share link: %w", err)
		}
		qrCol.Add(image.NewFromBytes(png, extension.Png, props.Rect{Percent: 100, Center: true}))
	}

	return []core.Row{
		row.New(30).Add(info, qrCol),
		row.New(1).WithStyle(&props.Cell{BorderType: border.Bottom, BorderColor: colorBorder}),
		row.New(6),
	}, nil
}

// ── Tables ──────────────────────────────────────────────────────────────

// columnWidths splits the 12-column grid: distance and every transport mode
// take two columns, the name gets the rest.
func columnWidths(columns int) []int {
	widths := make([]int, columns)
	rest := 12
	for i := columns - 1; i >= 1; i-- {
		widths[i] = 2
		rest -= 2
	}
	if columns > 0 {
		widths[0] = rest
	}
	return widths
}

func buildTable(table exports.ExportTable, accent *props.Color) []core.Row {
	widths := columnWidths(len(table.Header))
	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(text.New(strings.ToUpper(table.Title), props.Text{
			Size:  8,
			Style: fontstyle.Bold,
			Color: accent,
		}))),
	}

	headerCols := make([]core.Col, len(table.Header))
	for i, h := range table.Header {
		headerCols[i] = col.New(widths[i]).Add(text.New(h, cellStyle(i, true)))
	}
	rows = append(rows, row.New(7).Add(headerCols...).WithStyle(&props.Cell{BackgroundColor: colorTableHead}))

	for idx, values := range table.Body {
		cols := make([]core.Col, len(widths))
		for i := range widths {
			value := ""
			if i < len(values) {
				value = values[i]
			}
			cols[i] = col.New(widths[i]).Add(text.New(value, cellStyle(i, false)))
		}
		r := row.New(6).Add(cols...)
		if idx%2 == 1 {
			r = r.WithStyle(&props.Cell{BackgroundColor: colorTableAlt})
		}
		rows = append(rows, r)
	}
	return rows
}

func cellStyle(column int, header bool) props.Text {
	style := props.Text{Size: 8, Color: colorPrimary, Top: 1.5, Left: 1}
	if header {
		style.Style = fontstyle.Bold
		style.Size = 7.5
	}
	if column > 0 {
		style.Align = align.Center
	}
	return style
}

// ── Legend ──────────────────────────────────────────────────────────────

func buildLegend(entries []exports.LegendEntry, accent *props.Color) []core.Row {
	if len(entries) == 0 {
		return nil
	}

	rows := []core.Row{
		row.New(4),
		row.New(7).Add(col.New(12).Add(text.New("LEGENDE", props.Text{Size: 8, Style: fontstyle.Bold, Color: accent}))),
	}
	for i := 0; i < len(entries); i += 2 {
		cols := []core.Col{legendCol(entries[i])}
		if i+1 < len(entries) {
			cols = append(cols, legendCol(entries[i+1]))
		} else {
			cols = append(cols, col.New(6))
		}
		rows = append(rows, row.New(5).Add(cols...))
	}
	return rows
}

func legendCol(entry exports.LegendEntry) core.Col {
	return col.New(6).Add(text.New(entry.Title+" ("+entry.Icon+")", props.Text{Size: 8, Color: colorSecondary}))
}

// ── Footer ──────────────────────────────────────────────────────────────

func buildFooter(doc SnapshotDocument) core.Row {
	parts := []string{doc.BrandName}
	if doc.ContactPhone != "" {
		parts = append(parts, "Tel: "+phone.FormatInternational(doc.ContactPhone))
	}
	if doc.ShareURL != "" {
		parts = append(parts, doc.ShareURL)
	}

	return row.New(10).Add(
		col.New(12).Add(
			text.New(joinParts(parts, "  ·  "), props.Text{
				Size:  6.5,
				Color: colorSecondary,
				Align: align.Center,
				Top:   4,
			}),
		),
	).WithStyle(&props.Cell{
		BorderType:  border.Top,
		BorderColor: colorBorder,
	})
}

// ── Helpers ─────────────────────────────────────────────────────────────

func parseColor(hex string) *props.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return colorAccent
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return colorAccent
	}
	return &props.Color{
		Red:   int(value >> 16 & 0xff),
		Green: int(value >> 8 & 0xff),
		Blue:  int(value & 0xff),
	}
}

func joinParts(parts []string, sep string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
