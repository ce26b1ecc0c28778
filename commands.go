package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gestion-admin/export"
	"gestion-admin/facade"
	"gestion-admin/models"
	"gestion-admin/utils"
)

func runLogin(ctx context.Context, app *facade.App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	user := fs.String("u", "", "username")
	password := fs.String("p", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in := bufio.NewReader(os.Stdin)
	if *user == "" {
		*user = prompt(in, "Nom d'utilisateur: ")
	}
	if *password == "" {
		*password = prompt(in, "Mot de passe: ")
	}
	u, err := app.Login(ctx, *user, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Connecté en tant que %s (%s)\n", u.Username, u.Role)
	return nil
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Fprint(os.Stderr, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func runWhoami(w io.Writer, app *facade.App) error {
	sess := app.Client().Session()
	u, _ := sess.User()
	fmt.Fprintf(w, "%s <%s>\nrôle: %s\npages: %s\n", u.Username, u.Email, u.Role,
		strings.Join(models.EffectivePages(u.Role, u.PagePermissions), " "))
	if exp, ok := sess.AccessExpiry(); ok {
		fmt.Fprintf(w, "jeton valide jusqu'à %s\n", exp.Local().Format(time.DateTime))
	}
	return nil
}

var errUnknownEntity = errors.New("unknown entity")

// load fetches one collection and hands back the rows with a CSV writer and a table printer.
func load(ctx context.Context, app *facade.App, entity string) (csv func(io.Writer) error, table func(*tabwriter.Writer), err error) {
	switch entity {
	case "products":
		rows, err := app.Products.List(ctx)
		return func(w io.Writer) error { return export.Products(w, rows) }, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ID\tNOM\tQTÉ\tPRIX VENTE\tSEUIL")
			for _, p := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%d\n", p.ID, p.Name, p.Quantity, utils.FormatCurrency(float64(p.SalePrice)), p.AlertThreshold)
			}
		}, err
	case "stock":
		rows, err := app.StockMovements.List(ctx)
		return func(w io.Writer) error { return export.StockMovements(w, rows) }, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ID\tPRODUIT\tTYPE\tQTÉ\tDATE")
			for _, m := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", m.ID, m.ProductName, m.MovementType, m.Quantity, export.FormatDate(m.Date))
			}
		}, err
	case "invoices", "proformas":
		rows, err := app.Invoices.List(ctx)
		if entity == "proformas" {
			rows = app.Invoices.Proformas()
		}
		return func(w io.Writer) error { return export.Invoices(w, rows) }, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ID\tNUMÉRO\tCLIENT\tDATE\tTOTAL TTC\tSTATUT")
			for _, inv := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", inv.ID, inv.InvoiceNumber, inv.ClientName,
					export.FormatDate(inv.Date), utils.FormatCurrency(float64(inv.TotalTTC)), export.StatusLabel(inv.Status))
			}
		}, err
	case "quotes":
		rows, err := app.Quotes.List(ctx)
		return func(w io.Writer) error { return export.Quotes(w, rows) }, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ID\tNUMÉRO\tCLIENT\tDATE\tTOTAL TTC\tSTATUT")
			for _, q := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", q.ID, q.QuoteNumber, q.ClientName,
					export.FormatDate(q.Date), utils.FormatCurrency(float64(q.TotalTTC)), export.StatusLabel(q.Status))
			}
		}, err
	case "clients":
		rows, err := app.Clients.List(ctx)
		return func(w io.Writer) error { return export.Clients(w, rows) }, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ID\tNOM\tTÉLÉPHONE\tEMAIL")
			for _, c := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, c.Email)
			}
		}, err
	case "expenses":
		rows, err := app.Expenses.List(ctx)
		return func(w io.Writer) error { return export.Expenses(w, rows) }, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ID\tTITRE\tCATÉGORIE\tMONTANT\tDATE")
			for _, e := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Title, e.Category,
					utils.FormatCurrency(float64(e.Amount)), export.FormatDate(e.Date))
			}
		}, err
	case "users":
		rows, err := app.Users.List(ctx)
		return nil, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ID\tUTILISATEUR\tEMAIL\tRÔLE")
			for _, u := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.EffectiveRole())
			}
		}, err
	case "installations":
		rows, err := app.Installations.List(ctx)
		return nil, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ID\tNUMÉRO\tCLIENT\tDATE\tTOTAL\tRESTANT\tSTATUT")
			for _, in := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", in.ID, in.InstallationNumber, in.ClientName,
					export.FormatDate(in.InstallationDate), utils.FormatCurrency(float64(in.TotalAmount)),
					utils.FormatCurrency(float64(in.RemainingAmount)), in.Status)
			}
		}, err
	}
	return nil, nil, fmt.Errorf("%w %q", errUnknownEntity, entity)
}

func runList(ctx context.Context, w io.Writer, app *facade.App, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: list <entity>")
	}
	_, table, err := load(ctx, app, args[0])
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func runExport(ctx context.Context, app *facade.App, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: export <entity> <file.csv>")
	}
	csv, _, err := load(ctx, app, args[0])
	if err != nil {
		return err
	}
	if csv == nil {
		return fmt.Errorf("no CSV export for %s", args[0])
	}
	f, err := os.Create(args[1])
	if err != nil {
		return err
	}
	if err := csv(f); err != nil {
		f.Close()
		_ = os.Remove(args[1])
		return err
	}
	return f.Close()
}

func runPDF(ctx context.Context, app *facade.App, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: pdf <invoice|quote> <id> <dir>")
	}
	id := utils.ParseIntDefault(args[1], 0)
	if id == 0 {
		return fmt.Errorf("invalid id %q", args[1])
	}

	var doc export.Document
	switch args[0] {
	case "invoice":
		if _, err := app.Invoices.List(ctx); err != nil {
			return err
		}
		inv, ok := app.Invoices.Find(id)
		if !ok {
			return fmt.Errorf("invoice %d not found", id)
		}
		doc = export.FromInvoice(inv)
	case "quote":
		if _, err := app.Quotes.List(ctx); err != nil {
			return err
		}
		q, ok := app.Quotes.Find(id)
		if !ok {
			return fmt.Errorf("quote %d not found", id)
		}
		doc = export.FromQuote(q)
	default:
		return fmt.Errorf("unknown document %q", args[0])
	}

	path := filepath.Join(args[2], doc.Filename())
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WritePDF(f, doc); err != nil {
		f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runTranches(w io.Writer, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: tranches <method|N> <total>")
	}
	n := utils.TranchesForMethod(args[0])
	if n == 0 {
		n = utils.ParseIntDefault(args[0], 0)
	}
	total, err := strconv.ParseFloat(strings.ReplaceAll(args[1], " ", ""), 64)
	if err != nil {
		return fmt.Errorf("invalid total %q", args[1])
	}
	if n < 1 {
		fmt.Fprintf(w, "Paiement comptant: %s F\n", utils.FormatCurrency(total))
		return nil
	}
	pcts := utils.TranchePercentages(n)
	amounts := utils.TrancheAmounts(total, n)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TRANCHE\t%\tMONTANT\t")
	for i := range pcts {
		fmt.Fprintf(tw, "%d\t%s\t%s F\t\n", i+1, strconv.FormatFloat(pcts[i], 'f', -1, 64), utils.FormatCurrency(amounts[i]))
	}
	return tw.Flush()
}
