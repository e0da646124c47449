package helpers

import (
	"path/filepath"
	"strings"
)

// SplitAndTrim splits s by sep and trims empty parts.
func SplitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ProcessedName builds a storage-safe name for a processed image:
// "<id>_<stem>_no_bg.png".
func ProcessedName(filename, id string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	clean := strings.Trim(b.String(), "_")
	if clean == "" {
		clean = "image"
	}
	return id + "_" + clean + "_no_bg.png"
}
