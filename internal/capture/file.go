package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ironsheep/text-reader/internal/imaging"
)

// yuvSizePattern extracts the frame size from names like "frame_640x480.yuv".
var yuvSizePattern = regexp.MustCompile(`(\d+)x(\d+)\.yuv$`)

// FileSource reads the capture from a file on every call, so replacing the
// file between triggers simulates a new shot.
//
// Files ending in ".yuv" are raw planar I420 frames (Y plane, then U, then V)
// whose size is taken from the name, e.g. "board_1280x720.yuv". Anything else
// is passed on as a compressed raster.
type FileSource struct {
	Path     string
	Rotation int
	Mirror   bool
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string, rotation int, mirror bool) *FileSource {
	return &FileSource{Path: path, Rotation: rotation, Mirror: mirror}
}

// Capture implements Source.
func (s *FileSource) Capture(ctx context.Context) (Raw, error) {
	if err := ctx.Err(); err != nil {
		return Raw{}, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Raw{}, fmt.Errorf("failed to read capture: %w", err)
	}

	raw := Raw{Rotation: s.Rotation, Mirror: s.Mirror}

	if !strings.EqualFold(filepath.Ext(s.Path), ".yuv") {
		raw.Format = FormatCompressed
		raw.Data = data
		return raw, nil
	}

	width, height, err := yuvSize(s.Path)
	if err != nil {
		return Raw{}, err
	}

	planes, err := splitI420(data, width, height)
	if err != nil {
		return Raw{}, err
	}

	raw.Format = FormatYUV420
	raw.Width = width
	raw.Height = height
	raw.Planes = planes
	return raw, nil
}

func yuvSize(path string) (int, int, error) {
	m := yuvSizePattern.FindStringSubmatch(strings.ToLower(filepath.Base(path)))
	if m == nil {
		return 0, 0, fmt.Errorf("cannot infer frame size from %q: expected <name>_<width>x<height>.yuv", filepath.Base(path))
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid frame size %dx%d", w, h)
	}
	return w, h, nil
}

// splitI420 slices a packed I420 buffer into its three planes.
func splitI420(data []byte, width, height int) ([3]imaging.Plane, error) {
	ySize := width * height
	cSize := ((width + 1) / 2) * ((height + 1) / 2)

	if len(data) < ySize+2*cSize {
		return [3]imaging.Plane{}, fmt.Errorf("yuv frame too short: got %d bytes, want %d for %dx%d",
			len(data), ySize+2*cSize, width, height)
	}

	return [3]imaging.Plane{
		{Data: data[:ySize], RowStride: width, PixelStride: 1},
		{Data: data[ySize : ySize+cSize], RowStride: (width + 1) / 2, PixelStride: 1},
		{Data: data[ySize+cSize : ySize+2*cSize], RowStride: (width + 1) / 2, PixelStride: 1},
	}, nil
}
