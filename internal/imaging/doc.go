// Package imaging provides the raster operations of the text reader pipeline.
//
// It turns a raw capture into a correctly oriented frame and cuts one
// independent crop out of that frame for every detected region. All
// operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// Detected regions arrive normalized to [0,1] relative to the frame width and
// height. CropRect maps them to pixel rectangles:
//   - (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//   - A fixed fraction of the frame size (DefaultPadding) is added on every side
//   - The result is clamped to the frame and never empty
//
// # Frames
//
// Captures are either compressed rasters (Decode) or planar YUV 4:2:0 buffers
// (NV21FromPlanes, DecodeNV21). Orient then applies the rotation and mirror
// reported by the camera.
//
// # Thread Safety
//
// Every function is stateless and never modifies its input image, so crops of
// the same frame can be extracted concurrently as long as nobody writes to
// the frame.
//
// # Error Handling
//
// Geometry never fails. Decoding returns errors for:
//   - Empty or unrecognized buffers
//   - Planes too short for the announced dimensions
package imaging
