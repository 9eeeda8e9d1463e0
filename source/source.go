// Package source provides the schematics a batch search runs over: files,
// directories, in-memory buffers and a SQLite schematic store.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/arloliu/schemsearch/errs"
)

// Extension is the file extension of Sponge schematics.
const Extension = ".schem"

// Source yields the raw bytes of one schematic file.
type Source interface {
	// Name identifies the schematic in results and output.
	Name() string
	// Open returns the complete file contents.
	Open(ctx context.Context) ([]byte, error)
}

// File is a schematic stored on disk.
type File struct {
	Path string
}

var _ Source = File{}

func (f File) Name() string {
	return f.Path
}

// Open reads the file. Failures wrap errs.ErrIO.
func (f File) Open(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errs.WithPath(f.Path, fmt.Errorf("%w: %w", errs.ErrIO, err))
	}

	return data, nil
}

// Bytes is a schematic held in memory.
type Bytes struct {
	Label string
	Data  []byte
}

var _ Source = Bytes{}

func (b Bytes) Name() string {
	return b.Label
}

func (b Bytes) Open(ctx context.Context) ([]byte, error) {
	return b.Data, ctx.Err()
}

// Collect turns command line paths into sources. Directories contribute the
// *.schem files they directly contain, in lexical order; subdirectories are
// not visited. Files are used as given, whatever their extension.
//
// A path that cannot be inspected is kept as a File, so its failure is
// reported when the source is opened and does not hide the other paths.
func Collect(paths []string) ([]Source, error) {
	var out []Source
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			out = append(out, File{Path: path})
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, errs.WithPath(path, fmt.Errorf("%w: %w", errs.ErrIO, err))
		}
		var names []string
		for _, entry := range entries {
			if entry.Type().IsRegular() && strings.EqualFold(filepath.Ext(entry.Name()), Extension) {
				names = append(names, entry.Name())
			}
		}
		slices.Sort(names)
		for _, name := range names {
			out = append(out, File{Path: filepath.Join(path, name)})
		}
	}

	return out, nil
}
