package jobs

import (
	"fmt"
	"path/filepath"
	"strings"
)

// WorkRoot returns the per-job working directory rooted at base.
func (j Job) WorkRoot(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return filepath.Join(base, fmt.Sprintf("job-%d", j.ID))
}

// OutputFileName derives the download filename for the rendered video from
// the original upload name: "<name>_subtitled.<ext>".
func (j Job) OutputFileName() string {
	name := strings.TrimSpace(j.SourceFile)
	if name == "" {
		name = fmt.Sprintf("job-%d.mp4", j.ID)
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if ext == "" {
		ext = ".mp4"
	}
	return base + "_subtitled" + ext
}
