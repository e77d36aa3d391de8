package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two"), 0644))

	text, err := New().Extract(context.Background(), path, domain.MediaTypeText)

	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestExtract_InvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte{'o', 'k', 0xff}, 0644))

	text, err := New().Extract(context.Background(), path, domain.MediaTypeText)

	require.NoError(t, err)
	assert.Equal(t, "ok�", text)
}

func TestExtract_WrongType(t *testing.T) {
	_, err := New().Extract(context.Background(), "x.pdf", domain.MediaTypePDF)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestSupportedMediaTypes(t *testing.T) {
	assert.Equal(t, []domain.MediaType{domain.MediaTypeText}, New().SupportedMediaTypes())
}
