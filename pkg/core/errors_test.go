package core

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeErrorText_ShortMessagesUntouched(t *testing.T) {
	assert.Equal(t, "engine timed out", SanitizeErrorText("engine timed out"))
	assert.Equal(t, "", SanitizeErrorText(""))
}

func TestSanitizeErrorText_StripsNULBytes(t *testing.T) {
	assert.Equal(t, "ab", SanitizeErrorText("a\x00b"))
}

func TestSanitizeErrorText_DropsInvalidUTF8(t *testing.T) {
	sanitized := SanitizeErrorText("bad \xff\xfe byte")
	assert.True(t, utf8.ValidString(sanitized))
	assert.Equal(t, "bad  byte", sanitized)
}

func TestSanitizeErrorText_TruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("x", MaxErrorTextLength+100)
	sanitized := SanitizeErrorText(long)
	assert.Len(t, sanitized, MaxErrorTextLength)
}

func TestSanitizeErrorText_TruncationNeverSplitsARune(t *testing.T) {
	// Multi-byte runes placed so the cut point lands mid-rune.
	long := strings.Repeat("界", MaxErrorTextLength/3+10)
	sanitized := SanitizeErrorText(long)
	assert.True(t, utf8.ValidString(sanitized))
	assert.LessOrEqual(t, len(sanitized), MaxErrorTextLength)
}
