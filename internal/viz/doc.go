// Package viz draws the tilting glass in a terminal.
//
// [Canvas] is a braille dot grid; [DrawGlass] projects a simulator state onto
// it, rotated by the smoothed tilt. [Model] is a bubbletea program that
// steps a simulator from a sensor source at a fixed frame rate.
package viz
