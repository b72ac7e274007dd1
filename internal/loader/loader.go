// Package loader discovers and parses Stack Exchange dataset files.
//
// The loader is partial-failure tolerant: a file that fails to parse
// or does not match the export schema is logged and skipped, and the
// remaining files still load. The only thing that can make Load return
// an error is an unreadable file inside an existing directory being
// unreadable for reasons other than its content.
package loader

import (
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"cartography/internal/domain"
)

// Skipped records one dataset file the loader gave up on
type Skipped struct {
	Path string `json:"path"`
	Err  error  `json:"-"`

	// Reason is the error text, kept separately so summaries marshal
	Reason string `json:"reason"`
}

// Result is the outcome of one load pass
type Result struct {
	Datasets []*domain.DomainDataset
	Skipped  []Skipped

	// Fingerprint digests the names and contents of every candidate
	// file, loaded or skipped. Unchanged files always reproduce it.
	Fingerprint string
}

// Loader reads all dataset files from a directory. The directory is
// scanned once per call; the loader itself does no watching.
type Loader struct {
	dir    string
	logger *zap.Logger
}

// New creates a loader for the given dataset directory
func New(dir string, logger *zap.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Dir returns the dataset directory the loader scans
func (l *Loader) Dir() string { return l.dir }

// Load scans the dataset directory and parses every .json file found.
// A missing or empty directory yields an empty result, not an error.
func (l *Loader) Load() (*Result, error) {
	result := &Result{}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("dataset directory does not exist, universe will be empty",
				zap.String("dir", l.dir))
			result.Fingerprint = emptyFingerprint()
			return result, nil
		}
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(l.dir, entry.Name()))
	}
	sort.Strings(paths)

	hasher, _ := blake2b.New256(nil)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		hasher.Write([]byte(filepath.Base(path)))
		hasher.Write([]byte{0})
		hasher.Write(data)
		hasher.Write([]byte{0})

		dataset, err := ParseDataset(path, data)
		if err != nil {
			l.logger.Warn("skipping dataset file",
				zap.String("path", path),
				zap.Error(err))
			result.Skipped = append(result.Skipped, Skipped{
				Path:   path,
				Err:    err,
				Reason: err.Error(),
			})
			continue
		}

		l.logger.Info("loaded dataset",
			zap.String("site", dataset.Site),
			zap.String("kind", string(dataset.Kind)),
			zap.Int("records", dataset.RecordCount()),
			zap.String("path", path))
		result.Datasets = append(result.Datasets, dataset)
	}

	result.Fingerprint = hex.EncodeToString(hasher.Sum(nil))
	return result, nil
}

func emptyFingerprint() string {
	hasher, _ := blake2b.New256(nil)
	return hex.EncodeToString(hasher.Sum(nil))
}
