// Package source provides question-set sources backed by a local directory
// or a remote HTTP server.
package source

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pavelanni/quizrunner/internal/quiz"
)

var testExtensions = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// Dir serves question sets from files under a base directory.
type Dir struct {
	base string
}

// NewDir creates a Dir rooted at base. The directory must exist.
func NewDir(base string) (*Dir, error) {
	if base == "" {
		base = "./tests"
	}
	info, err := os.Stat(base)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: base, Err: errors.New("not a directory")}
	}
	return &Dir{base: base}, nil
}

// Fetch reads the file named by sourceID. Identifiers that escape the base
// directory are reported as not found.
func (d *Dir) Fetch(_ context.Context, sourceID string) ([]byte, error) {
	path, ok := d.resolve(sourceID)
	if !ok {
		return nil, &quiz.FetchError{SourceID: sourceID, Status: http.StatusNotFound}
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &quiz.FetchError{SourceID: sourceID, Status: http.StatusNotFound}
	}
	if err != nil {
		return nil, &quiz.FetchError{SourceID: sourceID, Err: err}
	}
	return data, nil
}

// List returns the JSON and YAML files in the base directory, sorted by name.
func (d *Dir) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.base)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !testExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

func (d *Dir) resolve(sourceID string) (string, bool) {
	if sourceID == "" || filepath.IsAbs(sourceID) {
		return "", false
	}
	rel := filepath.Clean(filepath.FromSlash(sourceID))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(d.base, rel), true
}
