// Package util is a set of utility variables or methods
package util

import (
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// SupportedExt are the artwork file extensions the viewer can show.
var SupportedExt = mapset.NewSet(
	".jpeg", ".jpg",
	".png",
	".bmp",
)

func IsArtwork(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	return SupportedExt.Contains(strings.ToLower(filepath.Ext(name)))
}
