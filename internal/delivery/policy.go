package delivery

import (
	"path/filepath"
	"strings"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".m4v":  true,
}

// IsVideo reports whether the artifact should be uploaded as a video.
func IsVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// ExceedsLimit reports whether size is strictly above limitMB mebibytes.
func ExceedsLimit(size int64, limitMB int) bool {
	return size > int64(limitMB)*1024*1024
}
