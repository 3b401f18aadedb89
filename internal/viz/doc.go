// Package viz holds the terminal presentation helpers shared by the CLI and
// the interactive session: lipgloss styles, a braille canvas, and the 3-D
// camera that projects phase curves onto a plane.
//
// The same [Camera] drives both the braille phase portrait shown in the
// terminal and the 3-D image written by the render package, so the two views
// agree on orientation.
package viz
