package main

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/meigma/bundles"
	"github.com/meigma/bundles/dat"
	"github.com/meigma/bundles/index"
)

func runInfo(a *bundles.Archive, stdout io.Writer) error {
	idx := a.Index()
	_, err := fmt.Fprintf(stdout, "algorithm: %s\nbundles:   %d\nfiles:     %d\nresolved:  %d\n",
		idx.Algorithm(), len(idx.Bundles()), idx.Len(), idx.Resolved())
	return err
}

func runList(a *bundles.Archive, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	withHash := fs.Bool("hash", false, "include unresolved files and print path hashes")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	prefix := bundles.NormalizePath(fs.Arg(0))

	idx := a.Index()
	files := slices.Collect(idx.FilesWithPrefix(prefix))
	if *withHash && prefix == "" {
		// Unresolved files have no path to match against a prefix.
		files = slices.Collect(idx.Files())
		slices.SortFunc(files, func(x, y index.FileInfo) int {
			return cmp.Or(strings.Compare(x.Path, y.Path), cmp.Compare(x.PathHash, y.PathHash))
		})
	}

	w := bufio.NewWriter(stdout)
	for _, fi := range files {
		bundleName := ""
		if b, ok := idx.Bundle(fi.BundleIndex); ok {
			bundleName = b.Name
		}
		if *withHash {
			fmt.Fprintf(w, "%016x\t", fi.PathHash)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", fi.Path, fi.FileSize, bundleName)
	}
	return w.Flush()
}

func runCat(a *bundles.Archive, args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: bundlecat cat <path|0xHASH>")
		return errUsage
	}
	data, err := readTarget(a, args[0])
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}

// readTarget reads a file by path, or by path hash when target is a
// 0x-prefixed hex number.
func readTarget(a *bundles.Archive, target string) ([]byte, error) {
	if hex, ok := strings.CutPrefix(target, "0x"); ok {
		hash, err := strconv.ParseUint(hex, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("parse hash %q: %w", target, err)
		}
		return a.ReadFileByHash(hash)
	}
	return a.ReadFile(target)
}

func runExtract(ctx context.Context, a *bundles.Archive, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	workers := fs.Int("workers", 0, "concurrent file writers (0 = GOMAXPROCS)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fmt.Fprintln(stderr, "usage: bundlecat extract [-workers n] <dest> [prefix]")
		return errUsage
	}

	stats, err := a.Extract(ctx, fs.Arg(0), fs.Arg(1), *workers)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "extracted %d files (%d bytes), skipped %d\n", stats.Files, stats.Bytes, stats.Skipped)
	return err
}

func runDat(a *bundles.Archive, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	schemaPath := fs.String("schema", "", "schema.min.json describing the table columns")
	row := fs.Int("row", -1, "dump only this row")
	limit := fs.Int("limit", 0, "maximum rows to dump (0 = all)")
	lists := fs.Bool("lists", false, "expand array columns into their values")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *schemaPath == "" || fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: bundlecat dat -schema schema.min.json [-row n] [-limit n] [-lists] <path>")
		return errUsage
	}
	name := fs.Arg(0)

	schema, err := loadSchema(*schemaPath)
	if err != nil {
		return err
	}
	table, ok := schema.Table(name)
	if !ok {
		return fmt.Errorf("no schema for table %q", dat.TableName(name))
	}
	r, err := a.OpenTable(name)
	if err != nil {
		return err
	}

	d := &rowDumper{r: r, table: table, lists: *lists, enc: json.NewEncoder(stdout)}
	if *row >= 0 {
		values, err := r.ReadRow(*row, table)
		if err != nil {
			return err
		}
		return d.dump(*row, values)
	}
	n := 0
	for i, values := range r.Rows(table) {
		if *limit > 0 && n >= *limit {
			break
		}
		if err := d.dump(i, values); err != nil {
			return err
		}
		n++
	}
	return nil
}

func loadSchema(path string) (*dat.Schema, error) {
	f, err := os.Open(path) //nolint:gosec // path is an operator-supplied CLI argument
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dat.LoadSchema(f)
}

// rowDumper writes one JSON object per row, keyed by column name.
type rowDumper struct {
	r     *dat.Reader
	table *dat.Table
	lists bool
	enc   *json.Encoder
}

func (d *rowDumper) dump(i int, values []dat.Value) error {
	obj := make(map[string]any, len(values)+1)
	obj["_row"] = i
	for c, v := range values {
		col := d.table.Columns[c]
		key := col.Name
		if key == "" {
			key = "_" + strconv.Itoa(c)
		}
		if d.lists && v.Kind == dat.KindList {
			count := int(min(v.Count, uint64(len(d.r.Data())))) //nolint:gosec // bounded by the table size
			items, err := d.r.ReadListValues(v.Offset, count, col)
			if err != nil {
				return fmt.Errorf("row %d column %s: %w", i, key, err)
			}
			obj[key] = items
			continue
		}
		obj[key] = v
	}
	return d.enc.Encode(obj)
}
