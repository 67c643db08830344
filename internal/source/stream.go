package source

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const readBufferSize = 64 * 1024

// Opener maps a sniffed content type to a decoding stream.
type Opener struct {
	classifier *Classifier
}

// NewOpener creates an opener using classifier for content sniffing.
// A nil classifier uses DefaultBufferSize.
func NewOpener(classifier *Classifier) *Opener {
	if classifier == nil {
		classifier = NewClassifier(DefaultBufferSize)
	}
	return &Opener{classifier: classifier}
}

// Classifier returns the content classifier used by the opener.
func (o *Opener) Classifier() *Classifier {
	return o.classifier
}

// Open sniffs the file at path and returns a stream of decoded lines.
func (o *Opener) Open(path string) (*Stream, error) {
	mime, err := o.classifier.Classify(path)
	if err != nil {
		return nil, err
	}
	return OpenAs(path, mime)
}

// OpenAs opens path with the decoder registered for mime.
func OpenAs(path, mime string) (*Stream, error) {
	if mime == MIMEEmpty {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	if !Supported(mime) {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFileType, path, mime)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	s := &Stream{path: path, mime: mime, closers: []io.Closer{f}}

	var raw io.Reader
	switch mime {
	case MIMEGzip, MIMEXGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, s.wrap(err)
		}
		s.closers = append([]io.Closer{zr}, s.closers...)
		raw = zr
	case MIMEBzip2:
		raw = bzip2.NewReader(f)
	default:
		raw = f
	}

	// Undecodable bytes become U+FFFD instead of failing the pass.
	decoded := transform.NewReader(raw, unicode.UTF8.NewDecoder())
	s.r = bufio.NewReaderSize(decoded, readBufferSize)

	return s, nil
}

// Stream yields the decoded lines of one file.
type Stream struct {
	path    string
	mime    string
	r       *bufio.Reader
	closers []io.Closer
}

// Path returns the path the stream was opened from.
func (s *Stream) Path() string {
	return s.path
}

// MIME returns the content type the stream was opened as.
func (s *Stream) MIME() string {
	return s.mime
}

// Next returns the next line without its line terminator.
// It returns io.EOF after the last line and an error wrapping
// ErrTruncatedFile when the underlying data ends mid-stream.
func (s *Stream) Next() (string, error) {
	line, err := s.r.ReadString('\n')
	switch {
	case err == nil:
		return strings.TrimRight(line, "\r\n"), nil
	case errors.Is(err, io.EOF):
		if line == "" {
			return "", io.EOF
		}
		return strings.TrimRight(line, "\r\n"), nil
	default:
		return "", s.wrap(err)
	}
}

// CountLines consumes the rest of the stream and returns the number of
// lines read. A final line without a terminator counts as a line.
func (s *Stream) CountLines() (int, error) {
	buf := make([]byte, readBufferSize)
	count := 0
	var last byte = '\n'

	for {
		n, err := s.r.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, s.wrap(err)
		}
	}

	if last != '\n' {
		count++
	}
	return count, nil
}

// Close releases the decoder and the underlying file.
func (s *Stream) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Stream) wrap(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncatedFile, s.path)
	}
	return fmt.Errorf("failed to read %s: %w", s.path, err)
}

// CountLines opens path and returns its number of decoded lines.
func (o *Opener) CountLines(path string) (int, error) {
	s, err := o.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = s.Close() }()

	return s.CountLines()
}
