package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/sqlitecat/core/sqlite"
	"github.com/FocuswithJustin/sqlitecat/internal/archive"
	"github.com/FocuswithJustin/sqlitecat/internal/logging"
	"github.com/FocuswithJustin/sqlitecat/internal/validation"
)

// RunCmd runs one dot-command or SELECT statement.
type RunCmd struct {
	Database string   `arg:"" help:"Path to the database file (.gz and .xz are decompressed)"`
	Command  []string `arg:"" help:"A dot-command (.dbinfo, .tables, .schema) or a SELECT statement"`
}

func (c *RunCmd) Run(g *Globals, out io.Writer) (err error) {
	command := strings.TrimSpace(strings.Join(c.Command, " "))
	start := time.Now()

	s, err := g.open(c.Database)
	if err != nil {
		logging.CommandRun(context.Background(), command, c.Database, time.Since(start), err)
		return err
	}
	defer s.Close()

	ctx := logging.WithSessionID(context.Background(), s.ID())
	defer func() {
		logging.CommandRun(ctx, command, c.Database, time.Since(start), err)
	}()
	logging.DebugContext(ctx, "session_ready",
		"page_size", s.PageSize(),
		"page_count", s.PageCount(),
		"compression", s.Compression().String())

	switch command {
	case ".dbinfo":
		return printDBInfo(out, s)
	case ".tables":
		names, err := s.TableNames()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, strings.Join(names, " "))
		return nil
	case ".schema":
		return printSchema(out, s)
	}
	if strings.HasPrefix(command, ".") {
		return fmt.Errorf("unknown command %q", command)
	}

	res, err := s.Query(command)
	if err != nil {
		return err
	}
	for _, line := range res.Lines("|") {
		fmt.Fprintln(out, line)
	}
	return nil
}

func printDBInfo(out io.Writer, s *sqlite.Session) error {
	h := s.Header()
	counts, err := s.CountByType()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "database page size: %d\n", s.PageSize())
	fmt.Fprintf(out, "number of tables: %d\n", s.TableCount())
	fmt.Fprintf(out, "write format: %d\n", h.WriteVersion)
	fmt.Fprintf(out, "read format: %d\n", h.ReadVersion)
	fmt.Fprintf(out, "reserved bytes: %d\n", h.ReservedSpace)
	fmt.Fprintf(out, "file change counter: %d\n", h.FileChangeCounter)
	fmt.Fprintf(out, "database page count: %d\n", s.PageCount())
	fmt.Fprintf(out, "freelist page count: %d\n", h.FreelistCount)
	fmt.Fprintf(out, "schema cookie: %d\n", h.SchemaCookie)
	fmt.Fprintf(out, "schema format: %d\n", h.SchemaFormat)
	fmt.Fprintf(out, "default cache size: %d\n", h.DefaultCacheSize)
	fmt.Fprintf(out, "autovacuum top root: %d\n", h.LargestRootPage)
	fmt.Fprintf(out, "incremental vacuum: %d\n", h.IncrVacuum)
	fmt.Fprintf(out, "text encoding: %d (%s)\n", h.TextEncoding, h.Encoding())
	fmt.Fprintf(out, "user version: %d\n", h.UserVersion)
	fmt.Fprintf(out, "application id: %d\n", h.AppID)
	fmt.Fprintf(out, "software version: %s\n", h.SQLiteVersionString())

	types := make([]string, 0, len(counts))
	for typ := range counts {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		fmt.Fprintf(out, "%s objects: %d\n", typ, counts[typ])
	}

	fmt.Fprintf(out, "database size: %s\n", humanize.IBytes(uint64(s.Size())))
	return nil
}

func printSchema(out io.Writer, s *sqlite.Session) error {
	entries, err := s.Entries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.SQL == "" {
			continue
		}
		fmt.Fprintf(out, "%s;\n", e.SQL)
	}
	return nil
}

// VerifyCmd runs a statement through the decoder and the reference driver.
type VerifyCmd struct {
	Database string `arg:"" help:"Path to an uncompressed database file" type:"existingfile"`
	SQL      string `arg:"" help:"SELECT statement to compare"`
}

func (c *VerifyCmd) Run(g *Globals, out io.Writer) (err error) {
	start := time.Now()
	s, err := g.open(c.Database)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := logging.WithSessionID(context.Background(), s.ID())
	defer func() {
		logging.CommandRun(ctx, "verify", c.Database, time.Since(start), err, "driver", sqlite.DriverType())
	}()

	cmp, err := sqlite.Compare(s, c.SQL)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, cmp)
	if !cmp.Match() {
		return fmt.Errorf("decoder and %s reference disagree", sqlite.DriverType())
	}
	return nil
}

// HashCmd prints the page-by-page digest of a database.
type HashCmd struct {
	Database string `arg:"" help:"Path to the database file"`
	JSON     bool   `help:"Print the digests as JSON"`
}

func (c *HashCmd) Run(g *Globals, out io.Writer) error {
	s, err := g.open(c.Database)
	if err != nil {
		return err
	}
	defer s.Close()

	sum, err := s.Fingerprint()
	if err != nil {
		return err
	}
	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	fmt.Fprintln(out, sum)
	return nil
}

// PackCmd writes a compressed copy of a database after checking that it
// decodes.
type PackCmd struct {
	Database string `arg:"" help:"Path to the database file"`
	Output   string `arg:"" help:"Path to write; .gz and .xz select the compression"`
	Force    bool   `help:"Overwrite an existing output file"`
}

func (c *PackCmd) Run(g *Globals, out io.Writer) (err error) {
	start := time.Now()
	if err := validation.ValidatePath(c.Output); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	if filepath.Clean(c.Output) == filepath.Clean(c.Database) {
		return fmt.Errorf("output %s is the input database", c.Output)
	}
	if _, err := os.Stat(c.Output); err == nil && !c.Force {
		return fmt.Errorf("output %s exists; use --force to overwrite", c.Output)
	}

	s, err := g.open(c.Database)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := logging.WithSessionID(context.Background(), s.ID())
	defer func() {
		logging.CommandRun(ctx, "pack", c.Database, time.Since(start), err, "output", c.Output)
	}()

	// Loading the catalog rejects files the decoder cannot read.
	if _, err := s.Entries(); err != nil {
		return err
	}

	limit, err := g.readLimit()
	if err != nil {
		return err
	}
	data, err := archive.ReadAll(c.Database, limit)
	if err != nil {
		return err
	}

	comp := archive.DetectCompression(c.Output)
	if comp == archive.None {
		logging.Warn("pack_uncompressed", "output", c.Output, "hint", "use a .gz or .xz suffix")
	}
	if err := archive.WriteFile(c.Output, data); err != nil {
		return err
	}
	logging.Info("pack_written", "output", c.Output, "compression", comp.String(), "bytes", len(data))
	fmt.Fprintf(out, "%s: %s (%s)\n", c.Output, humanize.IBytes(uint64(len(data))), comp)
	return nil
}

// VersionCmd prints the version and the reference driver.
type VersionCmd struct{}

func (c *VersionCmd) Run(out io.Writer) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(out, "sqlitecat version %s\n", version)
	fmt.Fprintf(out, "reference driver: %s (%s)\n", info.Package, info.DriverType)
	return nil
}
