package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/atvirokodosprendimai/maintlog/internal/adapters/db/gormdb"
	httpadapter "github.com/atvirokodosprendimai/maintlog/internal/adapters/http"
	rpcadapter "github.com/atvirokodosprendimai/maintlog/internal/adapters/rpcjson"
	"github.com/atvirokodosprendimai/maintlog/internal/application"
	"github.com/atvirokodosprendimai/maintlog/internal/config"
	"github.com/atvirokodosprendimai/maintlog/internal/domain"
	"github.com/atvirokodosprendimai/maintlog/internal/logger"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "maintlog",
		Usage: "Maintenance log server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			authCommand(),
			recordsCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describeError(err))
		os.Exit(1)
	}
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP and JSON-RPC servers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "optional dotenv file"},
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (HTTP_ADDR)"},
			&cli.StringFlag{Name: "rpc-socket", Usage: "JSON-RPC unix socket path (RPC_SOCKET)"},
			&cli.StringFlag{Name: "database-url", Usage: "database URL or SQLite path (DATABASE_URL)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (LOG_LEVEL)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(c.String("env-file"))
			if err != nil {
				return err
			}
			if c.IsSet("addr") {
				cfg.HTTP.Addr = c.String("addr")
			}
			if c.IsSet("rpc-socket") {
				cfg.RPC.Socket = c.String("rpc-socket")
			}
			if c.IsSet("database-url") {
				cfg.Database.URL = c.String("database-url")
			}
			if c.IsSet("log-level") {
				cfg.Log.Level = c.String("log-level")
			}
			return runServer(ctx, cfg)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format, "maintlog")
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	db, err := gormdb.Open(cfg.Database.URL, zl)
	if err != nil {
		return err
	}
	defer func() {
		if err := gormdb.Close(db); err != nil {
			zl.Warn("close database failed", zap.Error(err))
		}
	}()
	if err := gormdb.RunMigrations(ctx, db); err != nil {
		return err
	}

	auth, err := application.NewAuthenticator(cfg.Auth.Username, cfg.Auth.Password, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	if auth == nil {
		zl.Warn("APP_USERNAME and APP_PASSWORD are not set, record endpoints are open")
	}

	service := application.NewRecordService(gormdb.NewRecordRepository(db), auth)

	router := httpadapter.NewRouter(service, zl)
	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	rpcSrv, err := rpcadapter.Start(cfg.RPC.Socket, service, zl)
	if err != nil {
		return err
	}

	defer func() {
		_ = rpcSrv.Close()
	}()
	zl.Info("json-rpc listening", zap.String("socket", "unix://"+cfg.RPC.Socket))

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func transportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "transport", Usage: "uds or http"},
		&cli.StringFlag{Name: "server", Usage: "API base URL", Sources: cli.EnvVars("API_URL")},
		&cli.StringFlag{Name: "socket", Usage: "JSON-RPC unix socket path"},
	}
}

// resolveConfig loads the stored CLI config and applies transport flags.
func resolveConfig(c *cli.Command) (cliConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cliConfig{}, err
	}
	if c.IsSet("transport") {
		cfg.Transport = c.String("transport")
	}
	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("socket") {
		cfg.Socket = c.String("socket")
	}
	if cfg.Transport != transportUDS && cfg.Transport != transportHTTP {
		return cliConfig{}, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
	return cfg, nil
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Login and store CLI token",
				Flags: append(transportFlags(),
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := resolveConfig(c)
					if err != nil {
						return err
					}
					out, err := doLogin(ctx, cfg, c.String("username"), c.String("password"))
					if err != nil {
						return err
					}
					cfg.Token = out.Token
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("logged in as %s until %s\n", c.String("username"), out.ExpiresAt)
					return nil
				},
			},
			{
				Name:  "logout",
				Usage: "Clear local CLI auth token",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					cfg.Token = ""
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Println("logged out")
					return nil
				},
			},
		},
	}
}

func recordsCommand() *cli.Command {
	return &cli.Command{
		Name:  "records",
		Usage: "Maintenance record commands",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a record",
				Flags: append(transportFlags(),
					&cli.StringFlag{Name: "category", Usage: "e.g. maintenance or manual"},
					&cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD"},
					&cli.StringFlag{Name: "model-name"},
					&cli.StringFlag{Name: "serial-number"},
					&cli.StringFlag{Name: "content"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := resolveConfig(c)
					if err != nil {
						return err
					}
					in := domain.RecordInput{
						Category:     optionalFlag(c, "category"),
						Date:         optionalFlag(c, "date"),
						ModelName:    optionalFlag(c, "model-name"),
						SerialNumber: optionalFlag(c, "serial-number"),
						Content:      optionalFlag(c, "content"),
					}
					out, err := doRecordsCreate(ctx, cfg, in)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printRecords(os.Stdout, []domain.Record{out})
					return nil
				},
			},
			{
				Name:  "search",
				Usage: "Search records, newest first",
				Flags: append(transportFlags(),
					&cli.StringFlag{Name: "q", Usage: "space separated terms, all must match"},
					&cli.StringFlag{Name: "category"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := resolveConfig(c)
					if err != nil {
						return err
					}
					out, err := doRecordsSearch(ctx, cfg, c.String("q"), c.String("category"))
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printRecords(os.Stdout, out)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a record by id",
				ArgsUsage: "<id>",
				Flags: append(transportFlags(),
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip confirmation"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := parseID(c.Args().First())
					if err != nil {
						return err
					}
					cfg, err := resolveConfig(c)
					if err != nil {
						return err
					}
					if !c.Bool("yes") && !confirm(os.Stdin, os.Stdout, fmt.Sprintf("delete record %d?", id)) {
						fmt.Println("cancelled")
						return nil
					}
					if err := doRecordsDelete(ctx, cfg, id); err != nil {
						return err
					}
					fmt.Printf("record %d deleted\n", id)
					return nil
				},
			},
		},
	}
}

// optionalFlag distinguishes an omitted flag from one set to "".
func optionalFlag(c *cli.Command, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &domain.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return uint(id), nil
}

func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "not authorized, run `maintlog auth login`"
	case domain.IsNotFound(err):
		return "Record not found"
	case domain.IsTransport(err):
		return "could not reach the server: " + err.Error()
	default:
		return err.Error()
	}
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
