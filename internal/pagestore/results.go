package pagestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-harvest/internal/model"
)

const resultIndent = "    "

// Results stores extraction results as indented JSON arrays.
type Results struct {
	dir string
}

// NewResults returns a result store rooted at dir.
func NewResults(dir string) *Results {
	return &Results{dir: dir}
}

// Dir returns the storage directory.
func (r *Results) Dir() string { return r.dir }

// Path returns the file path used for a result index.
func (r *Results) Path(index int) string {
	return filepath.Join(r.dir, model.ResultFileName(index))
}

// Save writes records for index as a JSON array, replacing any earlier
// result. Non-ASCII text and HTML characters are written literally.
func (r *Results) Save(index int, records []model.Researcher) (string, error) {
	data, err := EncodeRecords(records)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "pagestore: create dir %s", r.dir)
	}
	path := r.Path(index)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "pagestore: write %s", path)
	}
	return path, nil
}

// Load reads the records stored for index.
func (r *Results) Load(index int) ([]model.Researcher, error) {
	path := r.Path(index)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{Index: index, Path: path}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "pagestore: read %s", path)
	}

	records := []model.Researcher{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrapf(err, "pagestore: decode %s", path)
	}
	return records, nil
}

// EncodeRecords renders records the way result files are written. A nil
// slice is rendered as an empty array.
func EncodeRecords(records []model.Researcher) ([]byte, error) {
	if records == nil {
		records = []model.Researcher{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", resultIndent)
	if err := enc.Encode(records); err != nil {
		return nil, eris.Wrap(err, "pagestore: encode records")
	}
	return buf.Bytes(), nil
}
