package types

import (
	"path/filepath"
	"strings"
)

// Clip references a source video on disk by key and path
type Clip struct {
	Key  string
	Path string
}

// NewClip derives the clip key from the file name without its extension
func NewClip(path string) Clip {
	base := filepath.Base(path)
	return Clip{
		Key:  strings.TrimSuffix(base, filepath.Ext(base)),
		Path: path,
	}
}
