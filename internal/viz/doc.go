// Package viz renders a running simulation in the terminal.
//
// A [Feed] is attached to the simulator as an observer and hands one
// [Frame] per step to a Bubble Tea [Model], which draws the particles on
// a Braille [Canvas] over the grid's land mask.
//
// # Key Bindings
//
//	Space - Pause/Resume the simulation
//	T     - Cycle color palettes
//	C     - Toggle the coastline
//	?     - Show help overlay
//	Q     - Quit
//
// The simulation waits while the view is paused.
package viz
