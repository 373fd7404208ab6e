// Package render implements the final pipeline stage that burns the compiled
// subtitle track into the source video.
package render
