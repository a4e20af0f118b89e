package view

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/ui/images"
)

const (
	defaultPreviewW = 400
	defaultPreviewH = 225
)

// PNGPreview writes the latest frame, scaled to fit, to a PNG file. The file
// is replaced atomically so readers never see a partial image.
type PNGPreview struct {
	path       string
	maxW, maxH int
}

func NewPNGPreview(path string, maxW, maxH int) *PNGPreview {
	if maxW <= 0 || maxH <= 0 {
		maxW, maxH = defaultPreviewW, defaultPreviewH
	}
	return &PNGPreview{path: path, maxW: maxW, maxH: maxH}
}

func (p *PNGPreview) Path() string { return p.path }

func (p *PNGPreview) ShowFrame(img image.Image) error {
	if p == nil || p.path == "" || img == nil {
		return nil
	}
	data, err := images.EncodePNG(images.ScaleToFit(img, p.maxW, p.maxH))
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".preview-*.png")
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write preview: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close preview: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace preview: %w", err)
	}
	return nil
}
