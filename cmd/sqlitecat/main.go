// Command sqlitecat reads SQLite database files without a SQLite engine.
//
// Usage:
//
//	sqlitecat [flags] <database> <command...>
//	sqlitecat verify <database> <sql>
//	sqlitecat hash <database>
//	sqlitecat pack <database> <output>
//	sqlitecat version
//
// The command is .dbinfo, .tables, .schema or a SELECT statement.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/sqlitecat/core/sqlite"
	"github.com/FocuswithJustin/sqlitecat/internal/logging"
	"github.com/FocuswithJustin/sqlitecat/internal/validation"
)

const version = "0.1.0"

// Globals are the flags shared by every command.
type Globals struct {
	LogLevel   string `name:"log-level" env:"SQLITECAT_LOG_LEVEL" default:"warn" enum:"debug,info,warn,warning,error" help:"Log level (${enum})"`
	LogFormat  string `name:"log-format" env:"SQLITECAT_LOG_FORMAT" default:"text" enum:"text,json" help:"Log format (${enum})"`
	CachePages int    `name:"cache-pages" env:"SQLITECAT_CACHE_PAGES" default:"0" help:"Pages to keep in memory, 0 disables the cache"`
	MaxDBSize  string `name:"max-db-size" env:"SQLITECAT_MAX_DB_SIZE" default:"100MiB" help:"Largest database size read, e.g. 100MiB"`
	MaxDepth   int    `name:"max-depth" env:"SQLITECAT_MAX_DEPTH" default:"64" help:"Deepest table b-tree descended"`
}

// CLI defines the command-line interface for sqlitecat.
type CLI struct {
	Globals

	Run     RunCmd     `cmd:"" default:"withargs" help:"Run a dot-command or SELECT statement against a database"`
	Verify  VerifyCmd  `cmd:"" help:"Compare decoded query output against the reference SQLite driver"`
	Hash    HashCmd    `cmd:"" help:"Print the SHA-256 and BLAKE3 digests of a database"`
	Pack    PackCmd    `cmd:"" help:"Write a copy of a database compressed by the output suffix (.gz or .xz)"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// initLogging configures the process logger from the log flags.
func (g *Globals) initLogging(w io.Writer) error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format, w)
	return nil
}

func (g *Globals) readLimit() (int64, error) {
	limit, err := humanize.ParseBytes(g.MaxDBSize)
	if err != nil {
		return 0, fmt.Errorf("invalid --max-db-size %q: %w", g.MaxDBSize, err)
	}
	return int64(limit), nil
}

// openOptions translates the flags into session options.
func (g *Globals) openOptions() ([]sqlite.Option, error) {
	limit, err := g.readLimit()
	if err != nil {
		return nil, err
	}
	if g.CachePages < 0 {
		return nil, fmt.Errorf("invalid --cache-pages %d: must not be negative", g.CachePages)
	}
	return []sqlite.Option{
		sqlite.WithReadLimit(limit),
		sqlite.WithMaxDepth(g.MaxDepth),
		sqlite.WithCache(g.CachePages),
		sqlite.WithLogger(logging.GetLogger()),
	}, nil
}

// open validates path and opens it as a session.
func (g *Globals) open(path string) (*sqlite.Session, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}
	if err := checkFileType(path); err != nil {
		return nil, err
	}
	opts, err := g.openOptions()
	if err != nil {
		return nil, err
	}
	return sqlite.Open(path, opts...)
}

// checkFileType rejects a file whose content does not match its suffix.
// Files that cannot be read are left for sqlite.Open to report.
func checkFileType(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	if info, err := f.Stat(); err != nil || info.IsDir() {
		return nil
	}
	if _, err := validation.ValidateFileType(f, path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// run parses args and executes the selected command, writing command output
// to stdout and logs to stderr.
func run(args []string, stdout, stderr io.Writer, options ...kong.Option) error {
	var cli CLI
	options = append([]kong.Option{
		kong.Name("sqlitecat"),
		kong.Description("Read SQLite database files without a SQLite engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(stdout, stderr),
		kong.BindTo(stdout, (*io.Writer)(nil)),
	}, options...)

	parser, err := kong.New(&cli, options...)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	if err := cli.initLogging(stderr); err != nil {
		return err
	}
	logging.Debug("cli_parsed", "command", ctx.Command(), "cache_pages", cli.CachePages, "max_db_size", cli.MaxDBSize)
	return ctx.Run(&cli.Globals)
}

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqlitecat: error: %v\n", err)
		os.Exit(1)
	}
}
