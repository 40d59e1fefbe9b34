package uploads

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveAndOpen(t *testing.T) {
	s, err := New(t.TempDir(), 1<<20)
	require.NoError(t, err)

	data := pngBytes(t)
	handle, err := s.Save(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(handle, ".png"))

	f, ct, err := s.Open(handle)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "image/png", ct)

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestSaveRejects(t *testing.T) {
	s, err := New(t.TempDir(), 64)
	require.NoError(t, err)

	_, err = s.Save(strings.NewReader("just some text, not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = s.Save(bytes.NewReader(make([]byte, 65)))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestOpenInvalidHandle(t *testing.T) {
	s, err := New(t.TempDir(), 1<<20)
	require.NoError(t, err)

	for _, h := range []string{"../users.json", "nope.png", "6f1c8f0e-4a57-4b7e-9d44-3b0f1f0d6a11.gif", ""} {
		_, _, err := s.Open(h)
		assert.ErrorIs(t, err, ErrInvalidHandle, h)
	}

	_, _, err = s.Open("6f1c8f0e-4a57-4b7e-9d44-3b0f1f0d6a11.png")
	assert.Error(t, err)
}
