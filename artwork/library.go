// Package artwork keeps the frame's artwork directory filled and decides when
// the displayed piece is refreshed.
package artwork

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/aouyang1/iotacanvas/util"
)

// List returns the sorted names of the artwork files in dir. A missing
// directory has no artwork.
func List(dir string) ([]string, error) {
	files, err := localFiles(dir)
	if err != nil {
		return nil, err
	}
	names := files.ToSlice()
	sort.Strings(names)
	return names, nil
}

// Paths returns the full paths of the artwork in dir, sorted by name.
func Paths(dir string) ([]string, error) {
	names, err := List(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

func localFiles(dir string) (mapset.Set[string], error) {
	dirs, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return mapset.NewSet[string](), nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read directory, %s, %w", dir, err)
	}

	files := mapset.NewSet[string]()
	for entry := range slices.Values(dirs) {
		if entry.IsDir() || !util.IsArtwork(entry.Name()) {
			continue
		}
		files.Add(entry.Name())
	}
	return files, nil
}

// Pick chooses a random artwork, avoiding current when there is another
// choice. It returns "" for an empty list.
func Pick(names []string, current string) string {
	candidates := make([]string, 0, len(names))
	for _, name := range names {
		if name != current {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		if slices.Contains(names, current) {
			return current
		}
		return ""
	}
	return candidates[rand.IntN(len(candidates))]
}
