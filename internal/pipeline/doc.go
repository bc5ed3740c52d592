// Package pipeline runs the capture-to-speech flow of the text reader.
//
// A run starts with TriggerCapture and walks through a fixed sequence of
// states:
//
//	Idle -> Capturing -> Detecting -> Recognizing -> Done -> Idle
//
// # Executors
//
// Three goroutines take part in a run:
//   - the main executor owns the state, makes every transition, speaks the
//     result and calls the Listener
//   - the capture executor takes the still image and decodes it
//   - the analysis executor runs detection, then cropping and the
//     recognition fan-out
//
// Workers never touch the state. They post a closure back to the main
// executor when their phase ends. A trigger that arrives while a run is in
// progress is rejected; there is no mid-flight cancellation.
//
// # Outcomes
//
// Every run ends in exactly one Outcome: NoDetections, Success (possibly with
// empty text) or RecognitionFailure carrying a coded error. Each outcome is
// announced once through the Notifier and reported once to the Listener
// before the state returns to Idle.
//
// # Recognition
//
// Recognize issues one request per crop, all at once, and joins them with a
// timeout. Results keep the order of the crops regardless of completion
// order, and a single failure fails the whole set. Merge joins the texts into
// the sentence that is spoken:
//
//	Merge([]ocr.Result{{Text: "STOP"}}) // "STOP."
package pipeline
