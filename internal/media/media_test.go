package media

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0}
)

func TestNewItemAcceptsJPEGAndPNG(t *testing.T) {
	jpeg, err := NewItem(0, "a.jpg", jpegHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", jpeg.ContentType)
	assert.Equal(t, ".jpg", jpeg.Ext())

	png, err := NewItem(1, "b.png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", png.ContentType)
	assert.Equal(t, ".png", png.Ext())
	assert.Equal(t, 1, png.Index)
}

func TestNewItemRejectsNonImages(t *testing.T) {
	_, err := NewItem(0, "a.txt", []byte("not an image"))
	assert.ErrorIs(t, err, ErrImageEncoding)

	_, err = NewItem(0, "empty.jpg", nil)
	assert.ErrorIs(t, err, ErrImageEncoding)
}

func TestItemsFromMultipartPreservesOrder(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"first.jpg", "second.jpg", "third.jpg"} {
		part, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(jpegHeader)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/media/publish", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	items, err := ItemsFromMultipart(req)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "first.jpg", items[0].Filename)
	assert.Equal(t, "second.jpg", items[1].Filename)
	assert.Equal(t, "third.jpg", items[2].Filename)
	for i, item := range items {
		assert.Equal(t, i, item.Index)
	}
}

func TestItemsFromMultipartRejectsBadPart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("images", "ok.jpg")
	require.NoError(t, err)
	_, _ = part.Write(jpegHeader)
	part, err = mw.CreateFormFile("images", "bad.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("plain text"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/media/publish", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, err = ItemsFromMultipart(req)
	assert.ErrorIs(t, err, ErrImageEncoding)
}

func TestItemsFromMultipartRequiresImages(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("caption", "no files here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/media/publish", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, err := ItemsFromMultipart(req)
	require.Error(t, err)
}
