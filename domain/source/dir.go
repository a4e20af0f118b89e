package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".webp": true}

// Dir replays an ordered sequence of still images as a video. Path may name
// a directory (files sorted by name) or a single image.
type Dir struct {
	path  string
	loop  bool
	files []string
	next  int
	seq   uint64
}

// NewDir returns an unopened directory source.
func NewDir(path string, loop bool) *Dir { return &Dir{path: path, loop: loop} }

func (d *Dir) Open() error {
	if d.path == "" {
		return fmt.Errorf("no video path configured")
	}
	info, err := os.Stat(d.path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		d.files = []string{d.path}
		d.next = 0
		return nil
	}
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(d.path, e.Name()))
	}
	if len(files) == 0 {
		return fmt.Errorf("no images in %s", d.path)
	}
	sort.Strings(files)
	d.files, d.next = files, 0
	return nil
}

// ReadFrame decodes the next image. At the end it wraps when looping and
// returns io.EOF otherwise. Undecodable files are skipped with ErrNoFrame.
func (d *Dir) ReadFrame() (Frame, error) {
	if len(d.files) == 0 {
		return Frame{}, ErrNoFrame
	}
	if d.next >= len(d.files) {
		if !d.loop {
			return Frame{}, io.EOF
		}
		d.next = 0
	}
	p := d.files[d.next]
	d.next++
	img, err := decodeFile(p)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %s: %v", ErrNoFrame, filepath.Base(p), err)
	}
	d.seq++
	return Frame{Image: toRGBA(img), CapturedAt: time.Now(), Sequence: d.seq}, nil
}

func (d *Dir) Close() error {
	d.files = nil
	d.next = 0
	return nil
}

// Len returns the number of frames found by Open.
func (d *Dir) Len() int { return len(d.files) }

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
