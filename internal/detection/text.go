package detection

import (
	"context"
	"image"
	"math"
	"sort"
	"time"

	"github.com/anthonynsimon/bild/effect"
)

// DefaultMinConfidence is the confidence threshold used by NewTextDetector
// when none is given.
const DefaultMinConfidence = 0.3

// TextLabel is the label attached to regions found by TextDetector.
const TextLabel = "text"

// edgeThreshold is the minimum gray-level step between neighbouring pixels
// that counts as an edge.
const edgeThreshold = 30

// windowSizes are the sliding windows scanned for text, in pixels.
var windowSizes = []struct{ w, h int }{
	{100, 30}, // Small text
	{150, 40}, // Medium text
	{200, 50}, // Large text
	{80, 25},  // Very small text
}

// TextDetector finds regions likely to contain printed text.
//
// This is a heuristic detector: it looks for windows with a medium edge
// density and a mostly horizontal edge structure, merges overlapping windows,
// and reports the merged boxes in reading order (top to bottom, then left to
// right). It needs no model and no network, which makes it the default
// detector.
type TextDetector struct {
	MinConfidence float64
}

// NewTextDetector creates a TextDetector. A non-positive minConfidence
// selects DefaultMinConfidence.
func NewTextDetector(minConfidence float64) *TextDetector {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &TextDetector{MinConfidence: minConfidence}
}

// box is a candidate region in pixel coordinates relative to the frame origin.
type box struct {
	x1, y1, x2, y2 int
	confidence     float64
}

// Detect implements Detector.
//
// Returns ErrNoDetections when no window passes the confidence threshold, and
// ctx.Err() if ctx is cancelled while scanning.
func (d *TextDetector) Detect(ctx context.Context, img image.Image) (*Result, error) {
	start := time.Now()

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, ErrNoDetections
	}

	edges := detectEdges(effect.Grayscale(img))

	candidates := make([]box, 0)
	for _, ws := range windowSizes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidates = append(candidates, scanWindows(edges, ws.w, ws.h, d.MinConfidence)...)
	}

	merged := mergeOverlapping(candidates)
	if len(merged) == 0 {
		return nil, ErrNoDetections
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].y1 != merged[j].y1 {
			return merged[i].y1 < merged[j].y1
		}
		return merged[i].x1 < merged[j].x1
	})

	regions := make([]Region, len(merged))
	for i, b := range merged {
		regions[i] = Region{
			X1:         float64(b.x1) / float64(width),
			Y1:         float64(b.y1) / float64(height),
			X2:         float64(b.x2) / float64(width),
			Y2:         float64(b.y2) / float64(height),
			Confidence: b.confidence,
			Label:      TextLabel,
		}
	}

	return &Result{Regions: regions, InferenceTime: time.Since(start)}, nil
}

// scanWindows slides a w×h window over the edge map with half-window steps
// and returns the windows that look like text.
func scanWindows(edges [][]bool, w, h int, minConfidence float64) []box {
	height := len(edges)
	if height == 0 {
		return nil
	}
	width := len(edges[0])

	var found []box
	stepX := w / 2
	stepY := h / 2

	for y := 0; y <= height-h; y += stepY {
		for x := 0; x <= width-w; x += stepX {
			edgeCount := 0
			for wy := 0; wy < h; wy++ {
				for wx := 0; wx < w; wx++ {
					if edges[y+wy][x+wx] {
						edgeCount++
					}
				}
			}

			density := float64(edgeCount) / float64(w*h)

			// Text has medium edge density: not too sparse, not too dense
			if density < 0.05 || density > 0.4 {
				continue
			}

			confidence := horizontalScore(edges, x, y, w, h) * (1.0 - math.Abs(density-0.2)/0.2)
			if confidence < minConfidence {
				continue
			}

			found = append(found, box{
				x1: x, y1: y, x2: x + w, y2: y + h,
				confidence: math.Round(confidence*1000) / 1000,
			})
		}
	}

	return found
}

// detectEdges marks pixels whose gray level differs from the right or lower
// neighbour by more than edgeThreshold. Border pixels are never edges.
//
// gray is bild's grayscale output, where R, G and B carry the same level, so
// only the red byte of each 4-byte pixel is read.
func detectEdges(gray *image.RGBA) [][]bool {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		if y == 0 || y == height-1 {
			continue
		}
		row := gray.Pix[y*gray.Stride : (y+1)*gray.Stride]
		next := gray.Pix[(y+1)*gray.Stride : (y+2)*gray.Stride]
		for x := 1; x < width-1; x++ {
			c := int(row[x*4])
			dx := absInt(c - int(row[(x+1)*4]))
			dy := absInt(c - int(next[x*4]))
			if dx > edgeThreshold || dy > edgeThreshold {
				edges[y][x] = true
			}
		}
	}

	return edges
}

// horizontalScore returns the share of horizontal edge runs among all runs
// in the window. Text typically has more horizontal structure.
func horizontalScore(edges [][]bool, x, y, w, h int) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges[row][col] {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges[row][col] {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}

// mergeOverlapping unions overlapping boxes until no two boxes overlap.
// A merged box keeps the highest confidence of its parts.
func mergeOverlapping(boxes []box) []box {
	merged := append([]box(nil), boxes...)

	for changed := true; changed; {
		changed = false
		for i := 0; i < len(merged) && !changed; i++ {
			for j := i + 1; j < len(merged); j++ {
				if !overlaps(merged[i], merged[j]) {
					continue
				}
				merged[i] = union(merged[i], merged[j])
				merged = append(merged[:j], merged[j+1:]...)
				changed = true
				break
			}
		}
	}

	return merged
}

func overlaps(a, b box) bool {
	return a.x1 < b.x2 && a.x2 > b.x1 && a.y1 < b.y2 && a.y2 > b.y1
}

func union(a, b box) box {
	return box{
		x1:         min(a.x1, b.x1),
		y1:         min(a.y1, b.y1),
		x2:         max(a.x2, b.x2),
		y2:         max(a.y2, b.y2),
		confidence: math.Max(a.confidence, b.confidence),
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
