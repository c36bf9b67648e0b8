package tryon

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
)

const sniffLen = 512

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

// sniffImage detects the content type of r from its leading bytes and returns a reader
// that still yields the full content. Only PNG and JPEG are accepted.
func sniffImage(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(head) == 0 {
		return nil, "", fmt.Errorf("image is empty")
	}

	contentType := http.DetectContentType(head)
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, "", fmt.Errorf("unsupported image type %s, only PNG and JPEG are allowed", contentType)
	}
	return br, contentType, nil
}
