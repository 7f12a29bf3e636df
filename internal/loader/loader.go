// Package loader reads delimited source files into typed tables. Many
// per-period transaction files with one shared schema are concatenated
// into a single table; reference datasets load from a single file.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"salesmart/internal/table"
	"salesmart/pkg/etlerr"
)

// DefaultWorkers bounds concurrent file reads when the caller does not
// choose a worker count.
const DefaultWorkers = 8

// rawFile is one parsed-but-untyped source file.
type rawFile struct {
	path    string
	header  []string
	records [][]string
}

// LoadDir enumerates files under dir matching glob (sorted), parses each,
// verifies every header against the first file's, concatenates all rows,
// and builds one typed table. Files are read concurrently; rows keep the
// sorted-glob file order so the result is deterministic.
func LoadDir(ctx context.Context, dir, glob string, workers int) (*table.Table, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, etlerr.NewSourceNotFound(dir, "input directory does not exist")
	}
	if !info.IsDir() {
		return nil, etlerr.NewSourceNotFound(dir, "input path is not a directory")
	}

	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, fmt.Errorf("bad glob pattern %q: %w", glob, err)
	}
	if len(matches) == 0 {
		return nil, etlerr.NewSourceNotFound(filepath.Join(dir, glob), "glob matched no files")
	}
	sort.Strings(matches)

	if workers <= 0 {
		workers = DefaultWorkers
	}
	files := make([]*rawFile, len(matches))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range matches {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rf, err := readRaw(path)
			if err != nil {
				return err
			}
			files[i] = rf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	first := files[0]
	records := make([][]string, 0, 1024)
	for _, rf := range files {
		if !sameHeader(rf.header, first.header) {
			return nil, etlerr.NewSchemaMismatch(rf.path,
				fmt.Sprintf("column set disagrees with %s", first.path))
		}
		records = append(records, rf.records...)
	}
	return build(first.path, first.header, records)
}

// LoadFile parses a single delimited file into a typed table.
func LoadFile(path string) (*table.Table, error) {
	rf, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	return build(rf.path, rf.header, rf.records)
}

func readRaw(path string) (*rawFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, etlerr.NewSourceNotFound(path, "input file does not exist")
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, etlerr.NewSchemaMismatch(path, "file has no header row")
	}
	return &rawFile{path: path, header: all[0], records: all[1:]}, nil
}

func sameHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// build infers one kind per column over the full concatenated data and
// produces the typed table. Inference order: Int, then Decimal, then
// String. Empty cells are null and do not constrain the kind. A
// repeated header name would misaddress cells downstream, so it is
// rejected here.
func build(path string, header []string, records [][]string) (*table.Table, error) {
	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		if _, dup := seen[name]; dup {
			return nil, etlerr.NewSchemaMismatch(path, fmt.Sprintf("header repeats column %q", name))
		}
		seen[name] = struct{}{}
	}

	kinds := make([]table.Kind, len(header))
	for c := range header {
		kinds[c] = inferKind(records, c)
	}
	cols := make([]table.Column, len(header))
	for c, name := range header {
		cols[c] = table.Column{Name: name, Kind: kinds[c]}
	}
	t := table.New(cols)
	for _, rec := range records {
		cells := make([]any, len(header))
		for c := range header {
			cells[c] = parseCell(rec[c], kinds[c])
		}
		// Arity is guaranteed by the csv reader's field count check.
		_ = t.AppendRow(cells)
	}
	return t, nil
}

func inferKind(records [][]string, col int) table.Kind {
	kind := table.Int
	seen := false
	for _, rec := range records {
		s := rec[col]
		if s == "" {
			continue
		}
		seen = true
		if kind == table.Int {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				continue
			}
			kind = table.Decimal
		}
		if kind == table.Decimal {
			if _, err := decimal.NewFromString(s); err == nil {
				continue
			}
			kind = table.String
		}
		if kind == table.String {
			break
		}
	}
	if !seen {
		return table.String
	}
	return kind
}

func parseCell(s string, kind table.Kind) any {
	if s == "" {
		return nil
	}
	switch kind {
	case table.Int:
		v, _ := strconv.ParseInt(s, 10, 64)
		return v
	case table.Decimal:
		d, _ := decimal.NewFromString(s)
		return d
	default:
		return s
	}
}
