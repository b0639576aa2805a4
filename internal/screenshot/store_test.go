package screenshot

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	data, err := EncodeJPEG(img, 90)
	require.NoError(t, err)
	return data
}

func TestNextName(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		name, err := NextName(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "00", name)
	})

	t.Run("missing directory", func(t *testing.T) {
		name, err := NextName(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Equal(t, "00", name)
	})

	t.Run("gap uses the maximum", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "00.jpg", "01.jpg", "03.jpg")
		name, err := NextName(dir)
		require.NoError(t, err)
		assert.Equal(t, "04", name)
	})

	t.Run("beyond two digits", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "99.jpg")
		name, err := NextName(dir)
		require.NoError(t, err)
		assert.Equal(t, "100", name)
	})

	t.Run("ignores directories and dot files", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "02.jpg", ".DS_Store")
		require.NoError(t, os.Mkdir(filepath.Join(dir, CompressedDir), 0o755))
		name, err := NextName(dir)
		require.NoError(t, err)
		assert.Equal(t, "03", name)
	})

	t.Run("non numeric stem", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "00.jpg", "notes.txt")
		_, err := NextName(dir)
		assert.ErrorIs(t, err, ErrInvalidName)
	})
}

func TestStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	s := NewStore(dir, zaptest.NewLogger(t))

	first, err := s.Save([]byte("one"))
	require.NoError(t, err)
	second, err := s.Save([]byte("two"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "00.jpg"), first)
	assert.Equal(t, filepath.Join(dir, "01.jpg"), second)

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestStore_Compressed(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, zaptest.NewLogger(t))

	path, err := s.Save(testJPEG(t, 1400, 1600))
	require.NoError(t, err)

	small, err := s.Compressed(path, 900, 635, 85)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, CompressedDir, "00.jpg"), small)

	data, err := os.ReadFile(small)
	require.NoError(t, err)
	img, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 556, img.Bounds().Dx())
	assert.Equal(t, 635, img.Bounds().Dy())

	// The compressed subdirectory does not disturb numbering.
	next, err := NextName(dir)
	require.NoError(t, err)
	assert.Equal(t, "01", next)

	_, err = s.Compressed(path, 900, 635, 85)
	assert.Error(t, err, "compressed copies are write-once")
}

func TestStore_CompressedRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, zaptest.NewLogger(t))
	path, err := s.Save([]byte("not an image"))
	require.NoError(t, err)

	_, err = s.Compressed(path, 900, 635, 85)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode screenshot")
}
