package imaging

import (
	"bytes"
	"errors"
	"strings"
)

var ErrAvatarMismatch = errors.New("avatar content does not match its declared image type")

// Magic byte prefixes per accepted image MIME type.
var magicBytes = map[string][][]byte{
	"image/jpeg": {{0xFF, 0xD8, 0xFF}},
	"image/jpg":  {{0xFF, 0xD8, 0xFF}},
	"image/png":  {{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	"image/gif":  {{0x47, 0x49, 0x46, 0x38, 0x37, 0x61}, {0x47, 0x49, 0x46, 0x38, 0x39, 0x61}}, // GIF87a & GIF89a
	"image/webp": {{0x52, 0x49, 0x46, 0x46}},                                                   // RIFF header
}

// mediaType returns the lowercased MIME type of a data URL header.
func mediaType(dataURL string) string {
	header, _, _ := strings.Cut(strings.TrimPrefix(dataURL, "data:"), ";")
	return strings.ToLower(header)
}

// validateMagicBytes checks the payload starts with a signature of the
// declared type. Unknown types are rejected.
func validateMagicBytes(mimeType string, data []byte) error {
	signatures, ok := magicBytes[mimeType]
	if !ok {
		return ErrUnsupportedAvatar
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig) {
			return nil
		}
	}
	return ErrAvatarMismatch
}
