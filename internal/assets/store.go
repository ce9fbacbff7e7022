// Package assets stores the image files of an open document. Assets live
// in an assets/ directory next to the database file and travel inside the
// document archive. Filenames are generated; callers keep only the name.
package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	_ "image/gif" // register GIF decoder

	"github.com/cardboxapp/cardbox/pkg/types"
)

// DirName is the asset directory inside a document's working directory.
const DirName = "assets"

// maxImagePixels rejects decompression bombs before a full decode.
const maxImagePixels = 64 << 20

// jpegQuality is used when a scaled image is re-encoded as JPEG.
const jpegQuality = 85

// Store manages the asset files of one open document.
type Store struct {
	dir string
}

// NewStore opens (creating if needed) the asset directory under workDir.
func NewStore(workDir string) (*Store, error) {
	dir := filepath.Join(workDir, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating asset dir: %v", types.ErrStorage, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the asset directory path.
func (s *Store) Dir() string { return s.dir }

// Path returns the on-disk path of a stored asset.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Put stores image data under a generated name and returns the name. Images
// wider or taller than maxDim are scaled down to fit, preserving aspect
// ratio; smaller images are stored as-is (never upscaled). maxDim <= 0
// disables scaling.
func (s *Store) Put(data []byte, ext string, maxDim int) (string, error) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	if maxDim > 0 {
		scaled, newExt, err := scaleDown(data, ext, maxDim)
		if err != nil {
			return "", err
		}
		if scaled != nil {
			data, ext = scaled, newExt
		}
	}

	name := newAssetName() + ext
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing asset: %v", types.ErrStorage, err)
	}
	return name, nil
}

// Open reads a stored asset back.
func (s *Store) Open(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("asset %s: %w", name, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading asset: %v", types.ErrStorage, err)
	}
	return data, nil
}

// Delete removes a stored asset. Deleting a missing asset is not an error.
func (s *Store) Delete(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: deleting asset: %v", types.ErrStorage, err)
	}
	return nil
}

// Names lists every stored asset filename.
func (s *Store) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: listing assets: %v", types.ErrStorage, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Prune deletes every asset not present in the referenced set and returns
// the number removed.
func (s *Store) Prune(referenced map[string]bool) (int, error) {
	names, err := s.Names()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names {
		if referenced[name] {
			continue
		}
		if err := s.Delete(name); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// scaleDown decodes a raster image and scales it to fit maxDim on its
// longer side. Returns (nil, "", nil) when the data is not a decodable
// raster image or already fits.
func scaleDown(data []byte, ext string, maxDim int) ([]byte, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// Not a raster format we can decode; store untouched.
		return nil, "", nil
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, "", fmt.Errorf("%w: image %dx%d too large", types.ErrValidation, cfg.Width, cfg.Height)
	}
	if cfg.Width <= maxDim && cfg.Height <= maxDim {
		return nil, "", nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: decoding image: %v", types.ErrValidation, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	var ratio float64
	if w >= h {
		ratio = float64(maxDim) / float64(w)
	} else {
		ratio = float64(maxDim) / float64(h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*ratio), int(float64(h)*ratio)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if ext == ".png" {
		if err := png.Encode(&buf, dst); err != nil {
			return nil, "", fmt.Errorf("%w: encoding png: %v", types.ErrStorage, err)
		}
		return buf.Bytes(), ".png", nil
	}
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("%w: encoding jpeg: %v", types.ErrStorage, err)
	}
	return buf.Bytes(), ".jpg", nil
}

func newAssetName() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
