// Package subtitle compiles timed transcript segments into SRT files and
// conditions segment timing for readable on-screen display.
package subtitle
