package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "abc", sanitizeUTF8("abc"))
	assert.Equal(t, "ab", sanitizeUTF8("a\xffb"))
	assert.Equal(t, "മെട്രോ", sanitizeUTF8("മെട്രോ"))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short", 10))
	assert.Equal(t, "abc...", excerpt("abcdef", 3))

	malayalam := strings.Repeat("മ", 600)
	got := excerpt(malayalam, 500)
	assert.Equal(t, strings.Repeat("മ", 500)+"...", got, "truncation counts characters, not bytes")
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"report.PDF", "pdf"},
		{"archive.tar.gz", "gz"},
		{"README", ""},
		{".env", "env"},
		{"dir.v2/notes", ""},
		{`C:\scans\drawing.DWG`, "dwg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fileExtension(tt.name), tt.name)
	}
}

func TestStripExtension(t *testing.T) {
	assert.Equal(t, "report.final", stripExtension("report.final.pdf"))
	assert.Equal(t, "README", stripExtension("README"))
	assert.Equal(t, "", stripExtension(".env"))
}
