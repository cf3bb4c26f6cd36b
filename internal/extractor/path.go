package extractor

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const defaultTitleBytes = 150

// formatIDSuffix matches the ".f<format id>" infix yt-dlp gives the
// per-format files of a merged download, e.g. "clip [id].f137.mp4". It is
// anchored on the closing bracket of the output template's id.
var formatIDSuffix = regexp.MustCompile(`(\])\.f[\w-]+(\.[^./\\]+)$`)

// OutputTemplate is the engine naming template: a length-bounded title plus
// the engine-assigned id, which keeps concurrent jobs on distinct paths.
func OutputTemplate(titleBytes int) string {
	if titleBytes <= 0 {
		titleBytes = defaultTitleBytes
	}
	return fmt.Sprintf("%%(title).%dB [%%(id)s].%%(ext)s", titleBytes)
}

// ReconcileExtension replaces the extension of path with ext when they differ.
// The engine may report the pre-merge or pre-recode filename while declaring
// the container it finally produced.
func ReconcileExtension(path, ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if path == "" || ext == "" {
		return path
	}
	if strings.HasSuffix(path, "."+ext) {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}

// StripFormatID removes the per-format infix from a merged download's part
// filename, leaving the name the merged file gets.
func StripFormatID(path string) string {
	return formatIDSuffix.ReplaceAllString(path, "$1$2")
}

// ResolveArtifactPath reconciles the reported filename with the declared
// extension and returns it as an absolute path.
func ResolveArtifactPath(reported, ext string) (string, error) {
	if reported == "" {
		return "", fmt.Errorf("empty reported filename")
	}
	return filepath.Abs(ReconcileExtension(StripFormatID(reported), ext))
}
