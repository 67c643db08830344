// Package source opens access-log files of unknown encoding and exposes
// them as decoded text lines.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gobeaver/filekit/filevalidator"
)

// DefaultBufferSize is the number of leading bytes used for content sniffing.
const DefaultBufferSize = 2048

// Content types recognised by the opener.
const (
	MIMEGzip      = "application/gzip"
	MIMEXGzip     = "application/x-gzip"
	MIMEBzip2     = "application/x-bzip2"
	MIMEPlainText = "text/plain"
	MIMEText      = "application/text"
	MIMEEmpty     = "application/x-empty"
)

// Sentinel errors surfaced by the classifier, the opener and the line counter.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyFile           = errors.New("file is empty")
	ErrTruncatedFile       = errors.New("file is truncated")
)

// Classifier sniffs the content type of a file from its leading bytes.
type Classifier struct {
	bufferSize int
}

// NewClassifier creates a classifier reading bufferSize bytes per file.
// Non-positive sizes fall back to DefaultBufferSize.
func NewClassifier(bufferSize int) *Classifier {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Classifier{bufferSize: bufferSize}
}

// BufferSize returns the number of bytes inspected per file.
func (c *Classifier) BufferSize() int {
	return c.bufferSize
}

// Classify returns the content type of the file at path.
// A zero-length file is reported as MIMEEmpty.
func (c *Classifier) Classify(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, c.bufferSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return ClassifyBytes(buf[:n]), nil
}

// ClassifyBytes returns the content type of a leading chunk of data.
func ClassifyBytes(data []byte) string {
	if len(data) == 0 {
		return MIMEEmpty
	}
	return filevalidator.DetectMIMEFromBytes(data)
}

// Supported reports whether the opener can decode the given content type.
func Supported(mime string) bool {
	switch mime {
	case MIMEGzip, MIMEXGzip, MIMEBzip2, MIMEPlainText, MIMEText:
		return true
	}
	return false
}
