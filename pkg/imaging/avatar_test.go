package imaging

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestNormalizeAvatarKeepsURLs(t *testing.T) {
	got, err := NormalizeAvatar("https://picsum.photos/seed/tom/100")
	require.NoError(t, err)
	assert.Equal(t, "https://picsum.photos/seed/tom/100", got)
}

func TestNormalizeAvatarRejectsOtherShapes(t *testing.T) {
	for _, in := range []string{"", "tom.png", "ftp://host/a.png", "data:text/plain;base64,aGk="} {
		_, err := NormalizeAvatar(in)
		assert.ErrorIs(t, err, ErrUnsupportedAvatar, in)
	}
}

func TestNormalizeAvatarDownscalesDataURL(t *testing.T) {
	got, err := NormalizeAvatar(pngDataURL(t, 1024, 256))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got, "data:image/jpeg;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, AvatarMaxDimension, img.Bounds().Dx())
	assert.Equal(t, 128, img.Bounds().Dy())
}

func TestNormalizeAvatarRejectsCorruptImage(t *testing.T) {
	_, err := NormalizeAvatar("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a png")))
	assert.Error(t, err)
}

func TestFitWithin(t *testing.T) {
	cases := []struct {
		w, h, wantW, wantH int
	}{
		{100, 50, 100, 50},
		{2000, 1000, 512, 256},
		{1000, 2000, 256, 512},
		{512, 512, 512, 512},
	}
	for _, c := range cases {
		w, h := fitWithin(c.w, c.h, 512)
		assert.Equal(t, c.wantW, w)
		assert.Equal(t, c.wantH, h)
	}
}

func TestIsAvatarReference(t *testing.T) {
	assert.True(t, IsAvatarReference("http://example.com/a.jpg"))
	assert.True(t, IsAvatarReference("data:image/png;base64,AAAA"))
	assert.False(t, IsAvatarReference("example.com/a.jpg"))
}

func TestNormalizeAvatarChecksSignature(t *testing.T) {
	src := pngDataURL(t, 8, 8)
	_, payload, _ := strings.Cut(src, ";base64,")

	_, err := NormalizeAvatar("data:image/gif;base64," + payload)
	assert.ErrorIs(t, err, ErrAvatarMismatch)

	_, err = NormalizeAvatar("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a png")))
	assert.ErrorIs(t, err, ErrAvatarMismatch)

	_, err = NormalizeAvatar("data:image/tiff;base64," + payload)
	assert.ErrorIs(t, err, ErrUnsupportedAvatar)

	_, err = NormalizeAvatar("data:IMAGE/PNG;base64," + payload)
	assert.ErrorIs(t, err, ErrUnsupportedAvatar)
}

// withDeclaredSize rewrites the IHDR dimensions of a PNG without touching its
// pixel data, keeping the chunk CRC valid.
func withDeclaredSize(t *testing.T, src []byte, w, h uint32) []byte {
	t.Helper()
	require.Equal(t, "IHDR", string(src[12:16]))
	out := bytes.Clone(src)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestNormalizeAvatarRejectsOversizedDimensions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))

	huge := withDeclaredSize(t, buf.Bytes(), 12000, 12000)
	_, err := NormalizeAvatar("data:image/png;base64," + base64.StdEncoding.EncodeToString(huge))
	assert.ErrorIs(t, err, ErrAvatarTooLarge)

	wide := withDeclaredSize(t, buf.Bytes(), 50_000_000, 1)
	_, err = NormalizeAvatar("data:image/png;base64," + base64.StdEncoding.EncodeToString(wide))
	assert.ErrorIs(t, err, ErrAvatarTooLarge)
}
