package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateExcerpt(t *testing.T) {
	short := "a short description"
	assert.Equal(t, short, truncateExcerpt(short, 200))

	ascii := strings.Repeat("a", 300)
	assert.Len(t, truncateExcerpt(ascii, 200), 200)

	// A two-byte rune straddling the limit must not be split.
	straddling := strings.Repeat("a", 199) + "é"
	got := truncateExcerpt(straddling, 200)
	assert.Equal(t, strings.Repeat("a", 199), got)
	assert.True(t, utf8.ValidString(got))

	wide := strings.Repeat("日", 100)
	got = truncateExcerpt(wide, 200)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 200)
}
