// Package viz is the terminal view of a running membrane.
//
// [Model] is a Bubble Tea model that advances a membrane.Engine once per
// tick and draws the projected mesh on a Braille [Canvas], or the raw height
// field as a heatmap. [App] puts a preset menu in front of it.
//
// # Key Bindings
//
//	Space  - Pause/Resume
//	N      - Single tick while paused
//	G      - Toggle gravity
//	R      - Reset to the configured initial state
//	V      - Switch surface / heatmap
//	T      - Cycle color themes
//	Arrows - Move the camera, +/- along the view direction, C restores it
//	?      - Show help overlay
package viz
