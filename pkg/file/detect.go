package file

import "bytes"

// Content types recognized by DetectMIMEType.
const (
	MIMETypeJPEG        = "image/jpeg"
	MIMETypePNG         = "image/png"
	MIMETypeGIF         = "image/gif"
	MIMETypeWebP        = "image/webp"
	MIMETypeBMP         = "image/bmp"
	MIMETypePDF         = "application/pdf"
	MIMETypeMP4         = "video/mp4"
	MIMETypeZIP         = "application/zip"
	MIMETypeRAR         = "application/x-rar-compressed"
	MIMETypeText        = "text/plain"
	MIMETypeOctetStream = "application/octet-stream"
)

// minSignatureLen is the shortest payload binary signatures are tested against.
const minSignatureLen = 12

type signature struct {
	mimeType string
	match    func(b []byte) bool
}

func prefix(p ...byte) func([]byte) bool {
	return func(b []byte) bool { return bytes.HasPrefix(b, p) }
}

// signatures is evaluated in order; the first match wins.
var signatures = []signature{
	{MIMETypeJPEG, prefix(0xFF, 0xD8, 0xFF)},
	{MIMETypePNG, prefix(0x89, 0x50, 0x4E, 0x47)},
	{MIMETypeGIF, prefix(0x47, 0x49, 0x46)},
	{MIMETypeWebP, func(b []byte) bool {
		return bytes.HasPrefix(b, []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP"))
	}},
	{MIMETypePDF, prefix(0x25, 0x50, 0x44, 0x46)},
	{MIMETypeBMP, prefix(0x42, 0x4D)},
	{MIMETypeZIP, func(b []byte) bool {
		return bytes.HasPrefix(b, []byte{0x50, 0x4B, 0x03, 0x04}) ||
			bytes.HasPrefix(b, []byte{0x50, 0x4B, 0x05, 0x06})
	}},
	{MIMETypeMP4, func(b []byte) bool {
		return bytes.Equal(b[4:8], []byte("ftyp"))
	}},
	{MIMETypeRAR, prefix(0x52, 0x61, 0x72, 0x21)},
}

// DetectMIMEType identifies the content type of data from its leading bytes
// instead of trusting caller-supplied metadata.
//
// Payloads shorter than 12 bytes skip the binary signatures and go straight to
// the text scan, so an empty payload is reported as text/plain: an empty scan
// has no byte above 0x7F.
//
// Example:
//
//	file.DetectMIMEType([]byte("Hello, World!")) // "text/plain"
func DetectMIMEType(data []byte) string {
	if len(data) >= minSignatureLen {
		for _, sig := range signatures {
			if sig.match(data) {
				return sig.mimeType
			}
		}
	}

	if isASCII(data) {
		return MIMETypeText
	}
	return MIMETypeOctetStream
}

func isASCII(data []byte) bool {
	for _, c := range data {
		if c > 0x7F {
			return false
		}
	}
	return true
}
