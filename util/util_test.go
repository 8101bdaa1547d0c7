package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsArtwork(t *testing.T) {
	assert.True(t, IsArtwork("sunset.png"))
	assert.True(t, IsArtwork("/art/Night.JPG"))
	assert.True(t, IsArtwork("old.bmp"))
	assert.False(t, IsArtwork("notes.txt"))
	assert.False(t, IsArtwork(".hidden.png"))
	assert.False(t, IsArtwork("noext"))
}
