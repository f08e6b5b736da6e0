// Package sampling builds a small text context from a directory or a file.
// Every step is instrumented, which makes it the default workload traced
// by the calltrace command.
package sampling

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/getsentry/calltrace/internal/tracer"
)

// ErrNoFiles is returned when a directory holds nothing to sample.
var ErrNoFiles = errors.New("sampling: no files found")

var textExtensions = map[string]struct{}{
	".txt":      {},
	".md":       {},
	".markdown": {},
	".json":     {},
	".csv":      {},
	".tsv":      {},
}

type Options struct {
	// Files is the number of files picked from a directory.
	Files int
	// Bytes is the prefix length read from each file.
	Bytes int
	// All includes files of any extension.
	All bool
	// Rand picks the files. A nil Rand uses the global source.
	Rand *rand.Rand
}

// Sample reads path as a single file or samples it as a directory.
func Sample(ctx context.Context, path string, opts Options) (string, error) {
	defer tracer.Enter(ctx)()

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return FromDir(ctx, path, opts)
	}
	return FromFile(ctx, path, opts.Bytes)
}

// FromFile returns the first n bytes of path under a header naming it.
func FromFile(ctx context.Context, path string, n int) (string, error) {
	defer tracer.Enter(ctx)()

	text, err := readPrefix(ctx, path, n)
	if err != nil {
		return "", err
	}
	return chunk(filepath.Base(path), text), nil
}

// FromDir picks up to opts.Files files below dir and concatenates a prefix
// of each. Unreadable files produce a chunk describing the error.
func FromDir(ctx context.Context, dir string, opts Options) (string, error) {
	defer tracer.Enter(ctx)()

	paths, err := listFiles(ctx, dir, opts.All)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}
	picked := pick(ctx, paths, opts.Files, opts.Rand)

	chunks := make([]string, 0, len(picked))
	for _, p := range picked {
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			rel = p
		}
		text, err := readPrefix(ctx, p, opts.Bytes)
		if err != nil {
			text = fmt.Sprintf("[read error: %v]", err)
		}
		chunks = append(chunks, chunk(filepath.ToSlash(rel), text))
	}
	return strings.Join(chunks, "\n"), nil
}

func listFiles(ctx context.Context, dir string, all bool) ([]string, error) {
	defer tracer.Enter(ctx)()

	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if all || isText(p) {
			paths = append(paths, p)
		}
		return nil
	})
	return paths, err
}

func isText(p string) bool {
	_, ok := textExtensions[strings.ToLower(filepath.Ext(p))]
	return ok
}

// pick returns k distinct paths in random order, or all of them when k
// exceeds their number.
func pick(ctx context.Context, paths []string, k int, rng *rand.Rand) []string {
	defer tracer.Enter(ctx)()

	k = min(k, len(paths))
	perm := rand.Perm
	if rng != nil {
		perm = rng.Perm
	}
	picked := make([]string, 0, k)
	for _, i := range perm(len(paths))[:k] {
		picked = append(picked, paths[i])
	}
	return picked
}

func readPrefix(ctx context.Context, path string, n int) (string, error) {
	defer tracer.Enter(ctx)()

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf, err := io.ReadAll(io.LimitReader(f, int64(n)))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(buf), "�"), nil
}

func chunk(name, text string) string {
	return "### FILE: " + name + "\n" + text + "\n"
}
