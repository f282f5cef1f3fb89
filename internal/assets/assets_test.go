package assets_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensiq/coldmail/internal/assets"
)

func fullFS() fstest.MapFS {
	return fstest.MapFS{
		"logo.png":  {Data: []byte("logo")},
		"Cover.png": {Data: []byte("cover")},
		"SN10.jpg":  {Data: []byte("sn10")},
	}
}

func TestStore_Open(t *testing.T) {
	t.Parallel()

	s := assets.New(fullFS())

	img, err := s.Open("logo.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "data:image/png;base64,bG9nbw==", img.DataURL())

	_, err = s.Open("missing.png")
	assert.ErrorIs(t, err, assets.ErrNotFound)

	for _, name := range []string{"../secret", "/etc/passwd", "a/../../b", ""} {
		_, err = s.Open(name)
		assert.ErrorIs(t, err, assets.ErrInvalidName, name)
	}
}

func TestStore_Preflight(t *testing.T) {
	t.Parallel()

	require.NoError(t, assets.New(fullFS()).Preflight())

	partial := fullFS()
	delete(partial, "SN10.jpg")
	err := assets.New(partial).Preflight()
	assert.ErrorIs(t, err, assets.ErrMissing)
	assert.Contains(t, err.Error(), "SN10.jpg")
}

func TestStore_Inline(t *testing.T) {
	t.Parallel()

	parts, err := assets.New(fullFS()).Inline()
	require.NoError(t, err)
	require.Len(t, parts, 3)

	cids := []string{parts[0].ContentID, parts[1].ContentID, parts[2].ContentID}
	assert.Equal(t, []string{"logo", "cover", "product"}, cids)
	assert.Equal(t, "image/jpeg", parts[2].ContentType)
}

func TestStore_InlineAvailable(t *testing.T) {
	t.Parallel()

	partial := fullFS()
	delete(partial, "Cover.png")
	s := assets.New(partial)

	_, err := s.Inline()
	assert.ErrorIs(t, err, assets.ErrNotFound)
	assert.Len(t, s.InlineAvailable(), 2)
}

func TestStore_EmbedDataURLs(t *testing.T) {
	t.Parallel()

	html := `<img src="cid:logo"><img src="cid:product">`
	out := assets.New(fullFS()).EmbedDataURLs(html)

	assert.NotContains(t, out, "cid:")
	assert.True(t, strings.Contains(out, `src="data:image/png;base64,`))
	assert.Contains(t, out, `src="data:image/jpeg;base64,`)
}
