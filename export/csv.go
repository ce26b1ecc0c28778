// Package export writes collections as CSV for spreadsheets and documents as PDF.
package export

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"gestion-admin/models"
	"gestion-admin/utils"
)

var ErrNothingToExport = errors.New("Aucune donnée à exporter")

// utf8BOM makes Excel open the file as UTF-8.
const utf8BOM = "\ufeff"

// Column is one CSV column: a header label and how to render a row.
type Column[T any] struct {
	Label string
	Value func(T) string
}

// WriteCSV writes rows with a BOM and a header line. Fields containing commas,
// quotes or newlines are quoted.
func WriteCSV[T any](w io.Writer, rows []T, cols []Column[T]) error {
	if len(rows) == 0 {
		return ErrNothingToExport
	}
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, c := range cols {
			record[i] = c.Value(row)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// FormatDate renders an API date as dd/mm/yyyy. Unparseable input is returned as is.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Oui"
	}
	return "Non"
}

var statusLabels = map[string]string{
	models.InvoicePaid:    "Payé",
	models.InvoiceUnpaid:  "Non payé",
	models.QuoteDraft:     "Brouillon",
	models.QuoteSent:      "Envoyé",
	models.QuoteAccepted:  "Accepté",
	models.QuoteRefused:   "Refusé",
	models.QuoteExpired:   "Expiré",
	models.QuoteConverted: "Converti",
	models.MovementIn:     "Entrée",
	models.MovementOut:    "Sortie",
}

// StatusLabel translates a backend enum value for display.
func StatusLabel(code string) string {
	if l, ok := statusLabels[code]; ok {
		return l
	}
	return code
}

func money(a models.Amount) string { return utils.FormatCurrency(float64(a)) }

func Invoices(w io.Writer, rows []models.Invoice) error {
	return WriteCSV(w, rows, []Column[models.Invoice]{
		{"Numéro Facture", func(i models.Invoice) string { return i.InvoiceNumber }},
		{"Client", func(i models.Invoice) string { return i.ClientName }},
		{"Date", func(i models.Invoice) string { return FormatDate(i.Date) }},
		{"Statut", func(i models.Invoice) string { return StatusLabel(i.Status) }},
		{"Montant TTC (FCFA)", func(i models.Invoice) string { return money(i.TotalTTC) }},
		{"Pro Forma", func(i models.Invoice) string { return yesNo(i.IsProforma) }},
	})
}

func Products(w io.Writer, rows []models.Product) error {
	return WriteCSV(w, rows, []Column[models.Product]{
		{"Nom", func(p models.Product) string { return p.Name }},
		{"Catégorie", func(p models.Product) string { return p.Category }},
		{"Quantité", func(p models.Product) string { return strconv.Itoa(p.Quantity) }},
		{"Prix d'achat (FCFA)", func(p models.Product) string { return money(p.PurchasePrice) }},
		{"Prix de vente (FCFA)", func(p models.Product) string { return money(p.SalePrice) }},
		{"Seuil d'alerte", func(p models.Product) string { return strconv.Itoa(p.AlertThreshold) }},
		{"Total vendu", func(p models.Product) string { return strconv.Itoa(p.TotalSold) }},
	})
}

func Clients(w io.Writer, rows []models.Client) error {
	return WriteCSV(w, rows, []Column[models.Client]{
		{"Nom", func(c models.Client) string { return c.Name }},
		{"Téléphone", func(c models.Client) string { return c.Phone }},
		{"Email", func(c models.Client) string { return c.Email }},
		{"Adresse", func(c models.Client) string { return c.Address }},
	})
}

func StockMovements(w io.Writer, rows []models.StockMovement) error {
	return WriteCSV(w, rows, []Column[models.StockMovement]{
		{"Date", func(m models.StockMovement) string { return FormatDate(m.Date) }},
		{"Produit", func(m models.StockMovement) string { return m.ProductName }},
		{"Type", func(m models.StockMovement) string { return StatusLabel(m.MovementType) }},
		{"Quantité", func(m models.StockMovement) string { return strconv.Itoa(m.Quantity) }},
		{"Commentaire", func(m models.StockMovement) string { return m.Comment }},
	})
}

func Quotes(w io.Writer, rows []models.Quote) error {
	return WriteCSV(w, rows, []Column[models.Quote]{
		{"Numéro Devis", func(q models.Quote) string { return q.QuoteNumber }},
		{"Client", func(q models.Quote) string { return q.ClientName }},
		{"Date", func(q models.Quote) string { return FormatDate(q.Date) }},
		{"Date d'expiration", func(q models.Quote) string { return FormatDate(q.ExpirationDate) }},
		{"Statut", func(q models.Quote) string { return StatusLabel(q.Status) }},
		{"Montant TTC (FCFA)", func(q models.Quote) string { return money(q.TotalTTC) }},
	})
}

func Expenses(w io.Writer, rows []models.Expense) error {
	return WriteCSV(w, rows, []Column[models.Expense]{
		{"Titre", func(e models.Expense) string { return e.Title }},
		{"Catégorie", func(e models.Expense) string { return e.Category }},
		{"Montant (FCFA)", func(e models.Expense) string { return money(e.Amount) }},
		{"Statut", func(e models.Expense) string { return StatusLabel(e.Status) }},
		{"Date", func(e models.Expense) string { return FormatDate(e.Date) }},
		{"Fournisseur", func(e models.Expense) string { return e.Supplier }},
		{"N° reçu", func(e models.Expense) string { return e.ReceiptNumber }},
		{"Description", func(e models.Expense) string { return e.Description }},
	})
}
