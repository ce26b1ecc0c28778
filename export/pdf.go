package export

import (
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"

	"gestion-admin/models"
	"gestion-admin/utils"
)

// VATRate is applied on top of the line totals of every document.
const VATRate = 0.18

type Kind int

const (
	KindInvoice Kind = iota
	KindQuote
	KindProforma
)

func (k Kind) title() string {
	switch k {
	case KindQuote:
		return "DEVIS"
	case KindProforma:
		return "FACTURE PRO FORMA"
	default:
		return "FACTURE"
	}
}

func (k Kind) prefix() string {
	switch k {
	case KindQuote:
		return "Devis"
	case KindProforma:
		return "Proforma"
	default:
		return "Facture"
	}
}

type Company struct {
	Name   string
	Footer []string
	Color  [3]int
}

var companies = map[string]Company{
	"NETSYSTEME": {
		Name: "Netsysteme Informatique et Télécommunication",
		Footer: []string{
			"MERCI POUR VOTRE CONFIANCE",
			"77 846 16 55 | 33 827 28 45 - sales@netsys-info.com - www.netsys-info.com",
			"Ouest foire sur la route de l'aeroport Leopold Sedar Senghor immeuble Seigneurie",
			"R.C.SN/DKR-2010.A.7987 / NINEA: 004225464",
		},
		Color: [3]int{15, 111, 181},
	},
	"SSE": {
		Name: "SSE",
		Footer: []string{
			"+221 33 883 42 42 - +221 77 846 16 55 - www.sse.sn - direction@sse.sn",
			"Ouest foire sur la route de l'aeroport, en face de l'hopital Philippe Senghor",
			"R.C.SN / DKR-2010.A.7987 - NINEA: 004225464 2Y2",
		},
		Color: [3]int{234, 88, 12},
	},
}

// CompanyFor returns the letterhead of code, NETSYSTEME by default.
func CompanyFor(code string) Company {
	if c, ok := companies[code]; ok {
		return c
	}
	return companies["NETSYSTEME"]
}

type Line struct {
	Designation string
	Quantity    int
	UnitPrice   float64
}

func (l Line) Total() float64 { return float64(l.Quantity) * l.UnitPrice }

// Document is what gets printed: an invoice, a pro forma or a quote.
type Document struct {
	Kind       Kind
	Number     string
	Date       string
	ValidUntil string
	ClientName string
	Company    string
	Lines      []Line
}

func (d Document) TotalHT() float64 {
	total := 0.0
	for _, l := range d.Lines {
		total += l.Total()
	}
	return total
}

func (d Document) VAT() float64      { return d.TotalHT() * VATRate }
func (d Document) TotalTTC() float64 { return d.TotalHT() + d.VAT() }

// Filename is Facture_<client>.pdf, Devis_<client>.pdf or Proforma_<client>.pdf.
func (d Document) Filename() string {
	return d.Kind.prefix() + "_" + utils.SanitizeFilename(d.ClientName) + ".pdf"
}

func FromInvoice(inv models.Invoice) Document {
	kind := KindInvoice
	if inv.IsProforma {
		kind = KindProforma
	}
	lines := inv.Items
	if len(lines) == 0 {
		lines = inv.InvoiceItems
	}
	doc := Document{Kind: kind, Number: inv.InvoiceNumber, Date: inv.Date, ClientName: inv.ClientName, Company: inv.Company}
	for _, it := range lines {
		name := it.DisplayName()
		if name == "" {
			name = "Produit non spécifié"
		}
		doc.Lines = append(doc.Lines, Line{Designation: name, Quantity: it.Quantity, UnitPrice: float64(it.UnitPrice)})
	}
	return doc
}

func FromQuote(q models.Quote) Document {
	doc := Document{
		Kind: KindQuote, Number: q.QuoteNumber, Date: q.Date, ValidUntil: q.ExpirationDate,
		ClientName: q.ClientName, Company: q.Company,
	}
	for _, it := range q.Lines() {
		name := it.ProductName
		if name == "" {
			name = "Produit non spécifié"
		}
		doc.Lines = append(doc.Lines, Line{Designation: name, Quantity: it.Quantity, UnitPrice: float64(it.UnitPrice)})
	}
	return doc
}

func fcfa(v float64) string { return utils.FormatCurrency(v) + " F CFA" }

// WritePDF renders d as an A4 document. Invoices get a second page with the delivery
// slip, which lists quantities without prices.
func WritePDF(w io.Writer, d Document) error {
	company := CompanyFor(d.Company)
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(d.Kind.title()+" "+d.Number, true)
	pdf.SetAutoPageBreak(true, 30)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-25)
		pdf.SetFont("Arial", "", 7)
		pdf.SetTextColor(company.Color[0], company.Color[1], company.Color[2])
		for _, line := range company.Footer {
			pdf.CellFormat(0, 4, tr(line), "", 1, "C", false, 0, "")
		}
	})

	page := func(title string, priced bool) {
		pdf.AddPage()
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 8, tr(company.Name), "", 1, "L", false, 0, "")
		pdf.Ln(4)

		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(100, 6, tr("Client : "+orDash(d.ClientName)), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 6, tr(title), "", 1, "R", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 5, tr("N° : "+orNA(d.Number)), "", 1, "R", false, 0, "")
		pdf.CellFormat(0, 5, tr("Date : "+dateOr(d.Date)), "", 1, "R", false, 0, "")
		if d.Kind == KindQuote && d.ValidUntil != "" {
			pdf.CellFormat(0, 5, tr("Valable jusqu'au : "+FormatDate(d.ValidUntil)), "", 1, "R", false, 0, "")
		}
		pdf.Ln(6)

		pdf.SetFillColor(company.Color[0], company.Color[1], company.Color[2])
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Arial", "B", 10)
		if priced {
			pdf.CellFormat(85, 8, tr("Désignation"), "1", 0, "L", true, 0, "")
			pdf.CellFormat(20, 8, tr("Qtd."), "1", 0, "C", true, 0, "")
			pdf.CellFormat(40, 8, tr("P. Unit."), "1", 0, "R", true, 0, "")
			pdf.CellFormat(45, 8, tr("Total HT"), "1", 1, "R", true, 0, "")
		} else {
			pdf.CellFormat(30, 8, tr("Qtd."), "1", 0, "C", true, 0, "")
			pdf.CellFormat(160, 8, tr("Désignation"), "1", 1, "L", true, 0, "")
		}

		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "", 10)
		pdf.SetFillColor(241, 245, 249)
		for i, l := range d.Lines {
			fill := i%2 == 1
			if priced {
				pdf.CellFormat(85, 7, tr(l.Designation), "1", 0, "L", fill, 0, "")
				pdf.CellFormat(20, 7, fmt.Sprint(l.Quantity), "1", 0, "C", fill, 0, "")
				pdf.CellFormat(40, 7, tr(fcfa(l.UnitPrice)), "1", 0, "R", fill, 0, "")
				pdf.CellFormat(45, 7, tr(fcfa(l.Total())), "1", 1, "R", fill, 0, "")
			} else {
				pdf.CellFormat(30, 7, fmt.Sprint(l.Quantity), "1", 0, "C", fill, 0, "")
				pdf.CellFormat(160, 7, tr(l.Designation), "1", 1, "L", fill, 0, "")
			}
		}
	}

	page(d.Kind.title(), true)
	pdf.Ln(6)
	totals := [][2]string{
		{"Total HT", fcfa(d.TotalHT())},
		{"TVA (18%)", fcfa(d.VAT())},
		{"Total TTC", fcfa(d.TotalTTC())},
	}
	for i, t := range totals {
		style := ""
		if i == len(totals)-1 {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(145, 6, tr(t[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, tr(t[1]), "", 1, "R", false, 0, "")
	}
	if d.Kind == KindQuote {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, tr("Validité : ce devis est valable jusqu'au "+dateOr(d.ValidUntil)+"."), "", "L", false)
	}
	pdf.Ln(10)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, tr("LA DIRECTION"), "", 1, "L", false, 0, "")

	if d.Kind == KindInvoice {
		page("BORDEREAU DE LIVRAISON", false)
	}
	return pdf.Output(w)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func dateOr(s string) string {
	if s == "" {
		return "date non spécifiée"
	}
	return FormatDate(s)
}
