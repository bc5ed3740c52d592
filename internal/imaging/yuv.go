package imaging

import (
	"fmt"
	"image"
)

// Plane is one color plane of a planar, chroma-subsampled capture buffer.
//
// RowStride is the distance in bytes between the starts of two rows and
// PixelStride the distance between two horizontally adjacent samples. Zero
// values mean tightly packed.
type Plane struct {
	Data        []byte `json:"-"`
	RowStride   int    `json:"row_stride"`
	PixelStride int    `json:"pixel_stride"`
}

// NV21FromPlanes reinterleaves a YUV 4:2:0 capture (planes ordered Y, U, V)
// into a single NV21 buffer: the full luma plane followed by interleaved
// chroma samples in V, U order.
//
// Chroma planes are subsampled by two in both directions; odd dimensions are
// rounded up.
func NV21FromPlanes(width, height int, planes [3]Plane) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}

	cw := (width + 1) / 2
	ch := (height + 1) / 2
	ySize := width * height
	out := make([]byte, ySize+2*cw*ch)

	y := planes[0]
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			v, err := sample(y, width, row, col)
			if err != nil {
				return nil, fmt.Errorf("luma plane: %w", err)
			}
			out[row*width+col] = v
		}
	}

	u := planes[1]
	v := planes[2]
	for row := 0; row < ch; row++ {
		for col := 0; col < cw; col++ {
			vs, err := sample(v, cw, row, col)
			if err != nil {
				return nil, fmt.Errorf("V plane: %w", err)
			}
			us, err := sample(u, cw, row, col)
			if err != nil {
				return nil, fmt.Errorf("U plane: %w", err)
			}
			i := ySize + (row*cw+col)*2
			out[i] = vs
			out[i+1] = us
		}
	}

	return out, nil
}

// DecodeNV21 converts an NV21 buffer into a 4:2:0 YCbCr image.
func DecodeNV21(data []byte, width, height int) (*image.YCbCr, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}

	cw := (width + 1) / 2
	ch := (height + 1) / 2
	ySize := width * height
	if want := ySize + 2*cw*ch; len(data) < want {
		return nil, fmt.Errorf("NV21 buffer too short: got %d bytes, want %d", len(data), want)
	}

	img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio420)
	for row := 0; row < height; row++ {
		copy(img.Y[row*img.YStride:row*img.YStride+width], data[row*width:(row+1)*width])
	}
	for row := 0; row < ch; row++ {
		for col := 0; col < cw; col++ {
			i := ySize + (row*cw+col)*2
			o := row*img.CStride + col
			img.Cr[o] = data[i]
			img.Cb[o] = data[i+1]
		}
	}

	return img, nil
}

// DecodeYUV420 is NV21FromPlanes followed by DecodeNV21.
func DecodeYUV420(width, height int, planes [3]Plane) (*image.YCbCr, error) {
	nv21, err := NV21FromPlanes(width, height, planes)
	if err != nil {
		return nil, err
	}
	return DecodeNV21(nv21, width, height)
}

func sample(p Plane, packedWidth, row, col int) (byte, error) {
	rowStride := p.RowStride
	if rowStride == 0 {
		rowStride = packedWidth
	}
	pixelStride := p.PixelStride
	if pixelStride == 0 {
		pixelStride = 1
	}
	i := row*rowStride + col*pixelStride
	if i < 0 || i >= len(p.Data) {
		return 0, fmt.Errorf("sample (%d,%d) outside buffer of %d bytes", col, row, len(p.Data))
	}
	return p.Data[i], nil
}
