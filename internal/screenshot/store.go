// Package screenshot keeps the numbered capture files of a run and prepares
// them for vision models (downscaling, grid overlays).
package screenshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrInvalidName is returned when the screenshot directory holds a file whose
// stem is not a number.
var ErrInvalidName = errors.New("invalid screenshot name")

// CompressedDir is the subdirectory that receives downscaled copies.
const CompressedDir = "compressed"

// NextName returns the two-digit stem for the next capture in dir: one more than
// the highest existing stem, or "00" when dir is empty or missing. Directories
// and dot-files are ignored.
func NextName(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "00", nil
		}
		return "", fmt.Errorf("failed to read screenshot directory: %w", err)
	}

	highest := -1
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		n, err := strconv.Atoi(stem)
		if err != nil || n < 0 {
			return "", fmt.Errorf("%w: %q in %s", ErrInvalidName, name, dir)
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%02d", highest+1), nil
}

// Store writes captures to Dir as NN<Ext>. Files are never overwritten.
type Store struct {
	Dir    string
	Ext    string
	logger *zap.Logger
}

// NewStore returns a JPEG store rooted at dir.
func NewStore(dir string, logger *zap.Logger) *Store {
	return &Store{Dir: dir, Ext: ".jpg", logger: logger.Named("screenshot")}
}

// Save writes data under the next free name and returns the file path.
func (s *Store) Save(data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	name, err := NextName(s.Dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir, name+s.Ext)
	if err := writeOnce(path, data); err != nil {
		return "", err
	}
	s.logger.Debug("Screenshot saved.", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

// Compressed writes a copy of the capture at path, shrunk to fit within
// maxW x maxH, to the compressed subdirectory and returns the new path.
func (s *Store) Compressed(path string, maxW, maxH, quality int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read screenshot: %w", err)
	}
	img, err := Decode(data)
	if err != nil {
		return "", err
	}
	out, err := Compress(img, maxW, maxH, quality)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.Dir, CompressedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create compressed directory: %w", err)
	}
	dst := filepath.Join(dir, filepath.Base(path))
	if err := writeOnce(dst, out); err != nil {
		return "", err
	}
	s.logger.Debug("Compressed screenshot saved.", zap.String("path", dst), zap.Int("bytes", len(out)))
	return dst, nil
}

func writeOnce(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
