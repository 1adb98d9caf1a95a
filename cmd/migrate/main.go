package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	_ "github.com/lib/pq"
	"github.com/opsledger/backend/internal/infrastructure/config"
	"github.com/opsledger/backend/internal/infrastructure/logger"
	"github.com/opsledger/backend/internal/infrastructure/migration"
	"github.com/opsledger/backend/migrations"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Globals are flags shared by every command
type Globals struct {
	Path     string `help:"Read migrations from this directory instead of the set built into the binary." type:"path"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info" enum:"debug,info,warn,error"`
}

type cli struct {
	Globals

	Up      UpCmd      `cmd:"" help:"Apply all pending migrations."`
	Down    DownCmd    `cmd:"" help:"Roll back all migrations."`
	Step    StepCmd    `cmd:"" help:"Apply n migrations (positive=up, negative=down)."`
	Goto    GotoCmd    `cmd:"" help:"Migrate to a specific version."`
	Version VersionCmd `cmd:"" help:"Show the current migration version."`
	Force   ForceCmd   `cmd:"" help:"Force the migration version after fixing a dirty state."`
	Create  CreateCmd  `cmd:"" help:"Create the next numbered migration pair."`
	List    ListCmd    `cmd:"" help:"List available migrations."`
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00AF5F", Dark: "#00D787"})
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F87"}).Bold(true)
)

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("migrate"),
		kong.Description("opsledger database migration tool.\n\nDatabase settings come from config.toml and OPSLEDGER_DATABASE_* variables."),
		kong.UsageOnError(),
	)

	log, err := logger.New(&logger.Config{
		Level:      c.LogLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	ctx.FatalIfErrorf(err)
	defer func() { _ = log.Sync() }()

	ctx.Bind(log)
	if err := ctx.Run(&c.Globals); err != nil {
		log.Fatal("Migration command failed", zap.String("command", ctx.Command()), zap.Error(err))
	}
}

// withMigrator opens the database named by the configuration and hands a
// migrator over it to fn.
func withMigrator(globals *Globals, log *zap.Logger, fn func(*migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if globals.Path != "" {
		m, err = migration.NewFromDir(db, globals.Path, log)
	} else {
		m, err = migration.New(db, migrations.FS, log)
	}
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	return fn(m)
}

type UpCmd struct{}

func (UpCmd) Run(globals *Globals, log *zap.Logger) error {
	return withMigrator(globals, log, func(m *migration.Migrator) error { return m.Up() })
}

type DownCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation."`
}

func (cmd DownCmd) Run(ctx *kong.Context, globals *Globals, log *zap.Logger) error {
	if !cmd.Yes {
		confirmed, err := confirm(ctx.Stdout, "Roll back every migration? All ledger data will be dropped.")
		if err != nil {
			return err
		}
		if !confirmed {
			log.Info("Rollback aborted")
			return nil
		}
	}
	return withMigrator(globals, log, func(m *migration.Migrator) error { return m.Down() })
}

type StepCmd struct {
	N int `arg:"" help:"Number of migrations; negative rolls back."`
}

func (cmd StepCmd) Run(globals *Globals, log *zap.Logger) error {
	return withMigrator(globals, log, func(m *migration.Migrator) error { return m.Steps(cmd.N) })
}

type GotoCmd struct {
	Version uint `arg:"" help:"Target version."`
}

func (cmd GotoCmd) Run(globals *Globals, log *zap.Logger) error {
	return withMigrator(globals, log, func(m *migration.Migrator) error { return m.GoTo(cmd.Version) })
}

type VersionCmd struct{}

func (VersionCmd) Run(globals *Globals, log *zap.Logger) error {
	return withMigrator(globals, log, func(m *migration.Migrator) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	})
}

type ForceCmd struct {
	Version int `arg:"" help:"Version to record as applied."`
}

func (cmd ForceCmd) Run(globals *Globals, log *zap.Logger) error {
	return withMigrator(globals, log, func(m *migration.Migrator) error { return m.Force(cmd.Version) })
}

type CreateCmd struct {
	Name        string `arg:"" help:"Short snake_case name."`
	Description string `arg:"" optional:"" help:"Free text written into the file header."`
}

func (cmd CreateCmd) Run(globals *Globals, log *zap.Logger) error {
	dir := globals.Path
	if dir == "" {
		dir = "migrations"
	}
	mf, err := migration.CreateMigration(dir, cmd.Name, cmd.Description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

type ListCmd struct{}

func (ListCmd) Run(ctx *kong.Context, globals *Globals) error {
	var (
		names []string
		err   error
	)
	if globals.Path != "" {
		names, err = migration.ListMigrations(os.DirFS(globals.Path))
	} else {
		names, err = migration.ListMigrations(migrations.FS)
	}
	if err != nil {
		return err
	}
	for _, name := range names {
		_, _ = fmt.Fprintf(ctx.Stdout, "%s %s\n", okStyle.Render("•"), name)
	}
	return nil
}

// confirm asks a yes/no question. Without a terminal on stdin it answers no.
func confirm(w io.Writer, question string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		_, _ = fmt.Fprintln(w, warnStyle.Render("stdin is not a terminal; pass --yes to confirm"))
		return false, nil
	}
	var ok bool
	err := huh.NewConfirm().
		Title(warnStyle.Render(question)).
		WithButtonAlignment(lipgloss.Left).
		Value(&ok).
		Run()
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return ok, nil
}
