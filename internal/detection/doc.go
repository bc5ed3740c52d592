// Package detection finds regions of interest in a captured frame.
//
// A Detector takes a decoded, orientation-corrected frame and returns the
// regions worth reading, each as a normalized bounding box with a confidence
// and a label. The pipeline crops every region and sends the crops to text
// recognition.
//
// # Detectors
//
//   - TextDetector: an edge density heuristic that needs no model. It scans
//     sliding windows for medium edge density with a mostly horizontal run
//     structure, merges overlapping windows and reports them in reading order.
//   - RemoteDetector: sends the frame as JPEG to a model served over a
//     websocket and maps the JSON reply to regions.
//
// # Coordinate System
//
// Region coordinates are normalized to the frame:
//   - (0, 0) is the top-left corner, (1, 1) the bottom-right corner
//   - X increases rightward, Y increases downward
//   - Values slightly outside [0, 1] are allowed and clamped when cropping
//
// # Empty Results
//
// A detector that ran but found nothing returns ErrNoDetections. This is
// different from a Result with an empty Regions slice, which the pipeline
// treats as "regions, but nothing to read".
package detection
