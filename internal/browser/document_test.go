package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathOf(t *testing.T) {
	assert.Equal(t, "/writing", pathOf("https://example.com/writing"))
	assert.Equal(t, "/a/b", pathOf("https://example.com/a/b?q=1#frag"))
	assert.Equal(t, "/", pathOf("https://example.com"))
	assert.Equal(t, "/", pathOf("://missing-scheme"))
}
