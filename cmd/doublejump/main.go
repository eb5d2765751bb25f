// Command doublejump runs a Dragonfly server with double jump enabled.
//
// Environment:
//
//	DOUBLEJUMP_CONFIG          configuration file (default doublejump.jsonc)
//	DOUBLEJUMP_PERMISSIONS_DB  SQLite permission database (default permissions.db)
//	DOUBLEJUMP_LOG_LEVEL       debug, info, warn or error (default info)
//	DOUBLEJUMP_OPERATORS       comma separated operator names
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/df-mc/dragonfly/server"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/google/uuid"
	"github.com/oriumgames/doublejump"
	"github.com/oriumgames/doublejump/perm"
)

// serverEnv is the environment configuration of the demo server.
type serverEnv struct {
	ConfigPath    string     `env:"DOUBLEJUMP_CONFIG" envDefault:"doublejump.jsonc"`
	PermissionsDB string     `env:"DOUBLEJUMP_PERMISSIONS_DB" envDefault:"permissions.db"`
	LogLevel      slog.Level `env:"DOUBLEJUMP_LOG_LEVEL" envDefault:"info"`
	Operators     []string   `env:"DOUBLEJUMP_OPERATORS" envSeparator:","`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var e serverEnv
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: e.LogLevel}))
	slog.SetDefault(log)

	cfg, err := loadConfig(e.ConfigPath, log)
	if err != nil {
		return err
	}

	perms, err := perm.Open(e.PermissionsDB)
	if err != nil {
		return fmt.Errorf("open permissions: %w", err)
	}
	defer perms.Close()

	mngr, err := doublejump.NewBuilder(cfg).
		Permissions(perms).
		Logger(log).
		Observer(func(id uuid.UUID, s doublejump.State) {
			log.Debug("doublejump: jump", "player", id, "state", s)
		}).
		Build()
	if err != nil {
		return err
	}
	defer mngr.Shutdown()

	cmd.Register(mngr.Command())

	conf, err := server.DefaultConfig().Config(log)
	if err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	srv := conf.New()
	srv.CloseOnProgramEnd()
	srv.Listen()

	for p := range srv.Accept() {
		operator := isOperator(e.Operators, p.Name())
		if operator {
			// Operators hold every double jump permission
			if err := perms.Grant(context.Background(), p.UUID(), "doublejump.*"); err != nil {
				log.Error("doublejump: grant operator permissions", "player", p.Name(), "error", err)
			}
		}

		p.Handle(doublejump.NewHandler(mngr))
		mngr.ScheduleJoin(doublejump.NewPlayer(p), operator)
	}
	return nil
}

// loadConfig reads the configuration file, falling back to the defaults when
// it does not exist.
func loadConfig(path string, log *slog.Logger) (doublejump.Config, error) {
	cfg, err := doublejump.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("doublejump: config not found, using defaults", "path", path)
		return doublejump.DefaultConfig(), nil
	}
	return cfg, err
}

// isOperator reports whether name is listed as an operator.
func isOperator(operators []string, name string) bool {
	return slices.ContainsFunc(operators, func(op string) bool {
		return strings.EqualFold(strings.TrimSpace(op), name)
	})
}
