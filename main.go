package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gestion-admin/client"
	"gestion-admin/config"
	"gestion-admin/database"
	"gestion-admin/facade"
	"gestion-admin/mockapi"
	"gestion-admin/notify"
	"gestion-admin/session"
)

const usage = `usage: gestion-admin <command> [arguments]

commands:
  login [-u user] [-p password]      open a session
  logout                             close the session
  whoami                             show the signed-in user
  list <entity>                      print a collection
  export <entity> <file.csv>         write a collection as CSV
  pdf <invoice|quote> <id> <dir>     write the PDF of an invoice or a quote
  tranches <method|N> <total>        show an installment schedule
  mock [-dsn dsn]                    run the local backend emulator

entities: products, stock, invoices, proformas, quotes, clients, expenses, users, installations`

func main() {
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	var err error
	switch cmd {
	case "tranches":
		err = runTranches(os.Stdout, args)
	case "mock":
		err = runMock(ctx, cfg, args)
	case "login", "logout", "whoami", "list", "export", "pdf":
		err = withApp(cfg, func(app *facade.App) error {
			return runSession(ctx, app, cmd, args)
		})
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

// withApp opens the persisted session and builds the facade around it.
func withApp(cfg config.Config, fn func(*facade.App) error) error {
	st, err := database.Connect(cfg.SessionDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	hc := &http.Client{Timeout: cfg.HTTPTimeout}
	sess := session.New(st, cfg.APIURL, hc)
	if _, err := sess.Restore(); err != nil {
		log.Printf("session: %v", err)
	}
	app := facade.New(client.New(cfg.APIURL, sess, hc), notify.New(cfg.NotificationTTL))
	return fn(app)
}

func runSession(ctx context.Context, app *facade.App, cmd string, args []string) error {
	if cmd == "login" {
		return runLogin(ctx, app, args)
	}
	if !app.Client().Session().LoggedIn() {
		return session.ErrNotLoggedIn
	}
	switch cmd {
	case "logout":
		app.Logout(ctx)
		return nil
	case "whoami":
		return runWhoami(os.Stdout, app)
	case "list":
		return runList(ctx, os.Stdout, app, args)
	case "export":
		return runExport(ctx, app, args)
	default:
		return runPDF(ctx, app, args)
	}
}

func runMock(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("mock", flag.ContinueOnError)
	dsn := fs.String("dsn", "file:mockapi?mode=memory&cache=shared", "emulator database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	db, err := mockapi.OpenStore(*dsn)
	if err != nil {
		return err
	}
	app, _, err := mockapi.New(mockapi.Options{Config: cfg, DB: db, Users: mockapi.DefaultUsers})
	if err != nil {
		return err
	}
	return mockapi.ListenAndServe(ctx, app, cfg.MockPort)
}
