package storage

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// SniffImage reports the content type and extension of data when its byte signature is an image.
func SniffImage(data []byte) (contentType, ext string, ok bool) {
	m := mimetype.Detect(data)
	for ; m != nil; m = m.Parent() {
		// svg is markup and can carry scripts
		if strings.HasPrefix(m.String(), "image/") && !m.Is("image/svg+xml") {
			return m.String(), m.Extension(), true
		}
	}
	return "", "", false
}
