package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"file URI is converted to local path", "file:///Users/test/atti/verbale.pdf", "/Users/test/atti/verbale.pdf"},
		{"file URI with spaces", "file:///Users/test/my atti/file.pdf", "/Users/test/my atti/file.pdf"},
		{"bare path passes through unchanged", "/Users/test/atti/file.pdf", "/Users/test/atti/file.pdf"},
		{"relative path passes through unchanged", "atti/file.pdf", "atti/file.pdf"},
		{"empty string passes through", "", ""},
		{"windows-style path passes through", "C:\\atti\\file.pdf", "C:\\atti\\file.pdf"},
		{"file prefix only", "file://", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.uri))
		})
	}
}
