package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders for image.Decode
	"image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	AvatarMaxDimension = 512
	AvatarQuality      = 80
	// MaxAvatarBytes bounds the decoded payload of a data URL avatar.
	MaxAvatarBytes = 8 << 20
	// MaxAvatarPixels bounds the declared dimensions checked before decoding.
	MaxAvatarPixels = 40_000_000
)

var (
	ErrUnsupportedAvatar = errors.New("avatar must be an http(s) URL or a base64 image data URL")
	ErrAvatarTooLarge    = errors.New("avatar image is too large")
)

// IsAvatarReference reports whether s has an accepted avatar shape without
// decoding it.
func IsAvatarReference(s string) bool {
	if isDataURL(s) {
		return true
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NormalizeAvatar keeps http(s) URLs as they are and re-encodes data URL
// avatars as a downscaled JPEG data URL.
func NormalizeAvatar(avatar string) (string, error) {
	if !isDataURL(avatar) {
		if IsAvatarReference(avatar) {
			return avatar, nil
		}
		return "", ErrUnsupportedAvatar
	}

	data, err := decodeDataURL(avatar)
	if err != nil {
		return "", err
	}
	if err := validateMagicBytes(mediaType(avatar), data); err != nil {
		return "", err
	}

	compressed, err := compressImage(data, AvatarMaxDimension, AvatarQuality)
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(compressed), nil
}

func isDataURL(s string) bool {
	return strings.HasPrefix(s, "data:image/") && strings.Contains(s, ";base64,")
}

func decodeDataURL(s string) ([]byte, error) {
	_, payload, ok := strings.Cut(s, ";base64,")
	if !ok {
		return nil, ErrUnsupportedAvatar
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxAvatarBytes {
		return nil, ErrAvatarTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode avatar: %w", err)
	}
	return data, nil
}

// compressImage scales an image down to maxDimension on its long edge and
// encodes it as JPEG.
func compressImage(data []byte, maxDimension int, quality int) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header (format: %s): %w", format, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxAvatarPixels/cfg.Height {
		return nil, ErrAvatarTooLarge
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxDimension)

	resized := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin keeps the aspect ratio; images already small enough are untouched.
func fitWithin(width, height, maxDimension int) (int, int) {
	switch {
	case width >= height && width > maxDimension:
		return maxDimension, max(1, height*maxDimension/width)
	case height > width && height > maxDimension:
		return max(1, width*maxDimension/height), maxDimension
	default:
		return width, height
	}
}
