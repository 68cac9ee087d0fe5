// Command commentariat is the CLI for the Commentariat commentary store.
// It serves the REST API and loads commentary sources into the store.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/commentariat/core/canon"
	"github.com/FocuswithJustin/commentariat/core/errors"
	"github.com/FocuswithJustin/commentariat/core/sqlite"
	"github.com/FocuswithJustin/commentariat/core/store"
	"github.com/FocuswithJustin/commentariat/internal/api"
	"github.com/FocuswithJustin/commentariat/internal/ingest"
	"github.com/FocuswithJustin/commentariat/internal/logging"
	"github.com/FocuswithJustin/commentariat/internal/server"
	"github.com/FocuswithJustin/commentariat/internal/sword"
)

const version = "0.1.0"

// CLI defines the command-line interface for commentariat.
var CLI struct {
	// Global flags
	LogLevel  string `help:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat string `help:"Log format (json, text)" default:"json"`

	Serve   ServeCmd    `cmd:"" help:"Start the REST API server"`
	Ingest  IngestGroup `cmd:"" help:"Load commentary sources into the store"`
	DB      DBGroup     `cmd:"" name:"db" help:"Database maintenance"`
	Books   BooksCmd    `cmd:"" help:"Print the canonical book table"`
	Version VersionCmd  `cmd:"" help:"Print version information"`
}

// IngestGroup contains one subcommand per source format.
type IngestGroup struct {
	JSON  IngestJSONCmd  `cmd:"" name:"json" help:"Ingest a JSON manifest"`
	Sword IngestSwordCmd `cmd:"" help:"Import an installed SWORD commentary module"`
	OSIS  IngestOSISCmd  `cmd:"" name:"osis" help:"Ingest an OSIS XML commentary document"`
}

// DBGroup contains database maintenance operations.
type DBGroup struct {
	Init DBInitCmd `cmd:"" help:"Create the schema and report the store location"`
	Info DBInfoCmd `cmd:"" help:"Show storage configuration and loaded commentaries"`
}

// StoreFlags select the storage backend for commands that open the store.
// Unset flags fall back to the environment, then to SQLite defaults.
type StoreFlags struct {
	Driver string `help:"Storage driver: sqlite, postgres or memory"`
	DB     string `name:"db" help:"SQLite database file" type:"path"`
	DSN    string `help:"PostgreSQL connection string"`
}

func (f StoreFlags) storeConfig() store.Config {
	cfg := store.ConfigFromEnv()
	if f.Driver != "" {
		cfg.Driver = f.Driver
	}
	if f.DB != "" {
		cfg.Path = f.DB
	}
	if f.DSN != "" {
		cfg.DSN = f.DSN
		if f.Driver == "" {
			cfg.Driver = store.DriverPostgres
		}
	}
	return cfg
}

func (f StoreFlags) open(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, f.storeConfig())
}

// ServeCmd starts the REST API server.
type ServeCmd struct {
	StoreFlags
	Addr            string        `help:"Listen address" default:":8750"`
	IngestDir       string        `help:"Directory of manifests to load before serving" type:"path"`
	AllowedOrigins  []string      `help:"CORS allowed origins (default: allow all)"`
	ShutdownTimeout time.Duration `help:"Drain window for graceful shutdown" default:"10s"`
}

func (c *ServeCmd) Run() error {
	ctx := context.Background()

	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if c.IngestDir != "" {
		if err := loadManifestDir(ctx, s, c.IngestDir); err != nil {
			return err
		}
	}

	return api.Start(ctx, api.Config{
		Addr:            c.Addr,
		Version:         version,
		AllowedOrigins:  c.AllowedOrigins,
		ShutdownTimeout: c.ShutdownTimeout,
	}, s)
}

// loadManifestDir ingests every manifest in dir, skipping slugs that are
// already present in the store.
func loadManifestDir(ctx context.Context, s store.Store, dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return errors.Wrap(err, "scan ingest dir")
	}

	for _, path := range matches {
		m, err := ingest.LoadManifest(path)
		if err != nil {
			logging.Warn("skipping unreadable manifest", "path", path, "error", err)
			continue
		}
		if _, err := s.GetCommentary(ctx, m.Commentary.Slug); err == nil {
			logging.Info("commentary already loaded",
				"slug", m.Commentary.Slug, "path", path)
			continue
		}
		if _, err := ingest.JSON(ctx, s, path, ingest.Options{}); err != nil {
			return errors.Wrapf(err, "ingest %s", path)
		}
	}
	return nil
}

// IngestJSONCmd ingests a JSON manifest.
type IngestJSONCmd struct {
	StoreFlags
	Path    string `arg:"" help:"Manifest file" type:"existingfile"`
	Replace bool   `help:"Replace the commentary if it already exists"`
}

func (c *IngestJSONCmd) Run() error {
	ctx := context.Background()

	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := ingest.JSON(ctx, s, c.Path, ingest.Options{Replace: c.Replace})
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}

// IngestSwordCmd imports a commentary from an installed SWORD module.
type IngestSwordCmd struct {
	StoreFlags
	Module    string `required:"" help:"SWORD module ID, e.g. MHC"`
	SwordPath string `help:"SWORD data directory (default: ~/.sword)" type:"path"`
	Replace   bool   `help:"Replace the commentary if it already exists"`
}

func (c *IngestSwordCmd) Run() error {
	ctx := context.Background()

	swordPath := c.SwordPath
	if swordPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "resolve home directory")
		}
		swordPath = filepath.Join(home, ".sword")
	}

	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := sword.Import(ctx, s, swordPath, c.Module, ingest.Options{Replace: c.Replace})
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}

// IngestOSISCmd ingests an OSIS XML commentary document.
type IngestOSISCmd struct {
	StoreFlags
	Path    string `arg:"" help:"OSIS XML file" type:"existingfile"`
	Slug    string `help:"Commentary slug (default: osisIDWork from the document)"`
	Name    string `help:"Display name (default: work title from the document)"`
	Replace bool   `help:"Replace the commentary if it already exists"`
}

func (c *IngestOSISCmd) Run() error {
	ctx := context.Background()

	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	meta := ingest.Meta{Slug: c.Slug, Name: c.Name}
	report, err := ingest.OSIS(ctx, s, c.Path, meta, ingest.Options{Replace: c.Replace})
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}

func printReport(r *ingest.Report) {
	fmt.Printf("Ingested: %s\n", r.Slug)
	fmt.Printf("  Run ID: %s\n", r.RunID)
	fmt.Printf("  Format: %s\n", r.Format)
	fmt.Printf("  Inserted: %d\n", r.Inserted)
	fmt.Printf("  Skipped: %d\n", r.Skipped)
	fmt.Printf("  Content hash: %s\n", r.ContentHash)
	fmt.Printf("  Duration: %s\n", r.Duration.Round(time.Millisecond))

	if len(r.Errors) > 0 {
		fmt.Println("  Skipped records:")
		for i, re := range r.Errors {
			if i == 10 {
				fmt.Printf("    ... and %d more\n", len(r.Errors)-10)
				break
			}
			fmt.Printf("    record %d: %s\n", re.Record, re.Reason)
		}
	}
}

// DBInitCmd creates the schema.
type DBInitCmd struct {
	StoreFlags
}

func (c *DBInitCmd) Run() error {
	ctx := context.Background()
	cfg := c.storeConfig()

	s, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	switch cfg.Driver {
	case store.DriverSQLite:
		fmt.Printf("Initialized SQLite store at %s\n", server.AbsPath(cfg.Path))
	case store.DriverPostgres:
		fmt.Println("Initialized PostgreSQL store")
	default:
		fmt.Printf("Initialized %s store\n", cfg.Driver)
	}
	return nil
}

// DBInfoCmd prints the storage configuration and loaded commentaries.
type DBInfoCmd struct {
	StoreFlags
}

func (c *DBInfoCmd) Run() error {
	ctx := context.Background()
	cfg := c.storeConfig()

	s, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Driver: %s\n", cfg.Driver)
	if cfg.Driver == store.DriverSQLite {
		fmt.Printf("Path: %s\n", server.AbsPath(cfg.Path))
		fmt.Printf("SQLite driver: %s (%s)\n", sqlite.DriverName(), sqlite.DriverType())
	}

	commentaries, err := s.ListCommentaries(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Commentaries: %d\n", len(commentaries))

	for _, cm := range commentaries {
		fmt.Printf("  %s  %s", cm.Slug, cm.Name)
		if cm.Language != "" {
			fmt.Printf(" (%s)", cm.Language)
		}
		fmt.Println()

		runs, err := s.ListRuns(ctx, cm.Slug)
		if err != nil || len(runs) == 0 {
			continue
		}
		last := runs[0]
		fmt.Printf("    last ingest: %s, %d entries, %d skipped (%s)\n",
			last.FinishedAt.Format(time.RFC3339), last.Inserted, last.Skipped, last.Format)
	}
	return nil
}

// BooksCmd prints the canonical book table.
type BooksCmd struct{}

func (c *BooksCmd) Run() error {
	for _, b := range canon.Books() {
		fmt.Printf("%2d  %-25s %-25s %3d chapters\n", b.Ordinal, b.Name, b.Slug, b.Chapters)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("commentariat version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("commentariat"),
		kong.Description("Commentariat - range-indexed Bible commentary store and API"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
