// Package pagestore keeps raw pages and extraction results as flat files,
// one file per page index.
package pagestore

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-harvest/internal/model"
)

// ErrNotFound matches any NotFoundError via errors.Is.
var ErrNotFound = errors.New("pagestore: not found")

// NotFoundError reports a page or result file that does not exist.
type NotFoundError struct {
	Index int
	Path  string
}

func (e *NotFoundError) Error() string {
	return "pagestore: page " + strconv.Itoa(e.Index) + " not found at " + e.Path
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

var pageFileRe = regexp.MustCompile(`^page_([0-9]+)\.html$`)

// Pages stores raw page bodies under a single directory.
type Pages struct {
	dir string
}

// NewPages returns a page store rooted at dir. The directory is created on
// the first save.
func NewPages(dir string) *Pages {
	return &Pages{dir: dir}
}

// Dir returns the storage directory.
func (p *Pages) Dir() string { return p.dir }

// Path returns the file path used for a page index.
func (p *Pages) Path(index int) string {
	return filepath.Join(p.dir, model.PageFileName(index))
}

// Save writes content verbatim for index, replacing any earlier copy.
func (p *Pages) Save(index int, content string) (string, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "pagestore: create dir %s", p.dir)
	}
	path := p.Path(index)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", eris.Wrapf(err, "pagestore: write %s", path)
	}
	return path, nil
}

// Load returns the stored content for index.
func (p *Pages) Load(index int) (string, error) {
	path := p.Path(index)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", &NotFoundError{Index: index, Path: path}
	}
	if err != nil {
		return "", eris.Wrapf(err, "pagestore: read %s", path)
	}
	return string(data), nil
}

// Indices returns the stored page indices in ascending order. A missing
// directory yields no indices.
func (p *Pages) Indices() ([]int, error) {
	entries, err := os.ReadDir(p.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "pagestore: list %s", p.dir)
	}

	var out []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pageFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return out, nil
}

// All yields the stored page indices. The directory is read each time the
// sequence is ranged over, so it can be restarted; a listing failure is
// yielded as a single (0, err) pair.
func (p *Pages) All() iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		indices, err := p.Indices()
		if err != nil {
			yield(0, err)
			return
		}
		for _, i := range indices {
			if !yield(i, nil) {
				return
			}
		}
	}
}
