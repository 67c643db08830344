// Package pathinfo derives attributes of a log file from its path: the date
// and collection encoded in the file name, the paperboy naming flag, the
// sniffed content type and the extension.
package pathinfo

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/olegiv/logvalidator-go/internal/source"
)

// ErrUndeterminedExtension is returned when a file name has no extension.
var ErrUndeterminedExtension = errors.New("could not extract extension")

var (
	reDashedDate  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	reCompactDate = regexp.MustCompile(`\d{8}`)
	rePaperboy    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[\w|.]*\.log\.gz$`)
)

// Collection maps a file-name identifier to a collection acronym.
type Collection struct {
	Identifier string
	Acronym    string
}

// Collections is the identifier table, searched in order. Longer identifiers
// precede their prefixes.
var Collections = []Collection{
	{"_scielo.ar", "arg"},
	{"_scielo.bo", "bol"},
	{"_scielo.1.br", "scl"},
	{"_scielo.2.br", "scl"},
	{"_scielo-br", "scl"},
	{"_scielo.cl", "chl"},
	{"_scielo.co", "col"},
	{"_scielo.cr", "cru"},
	{"_scielo.cu", "cub"},
	{"_scielo.ec", "ecu"},
	{"_scielo.mx", "mex"},
	{"_scielo.py", "pry"},
	{"_scielo.pepsic", "psi"},
	{"_scielo.pe", "per"},
	{"_scielo.pt", "prt"},
	{"_scielo.sp.1", "ssp"},
	{"_scielo.sp.2", "ssp"},
	{"_scielo.za", "sza"},
	{"_scielo.es", "esp"},
	{"_scielo.uy", "ury"},
	{"_scielo.ven", "ven"},
	{"_caribbean.scielo.org.1", "wid"},
	{"_caribbean.scielo.org.2", "wid"},
	{"_scielo.data", "dat"},
	{"_scielo.preprints", "pre"},
	{"_scielo.revenf", "rev"},
	{"_scielo.ss", "sss"},
}

// Attributes are the path-derived facts about one log file.
type Attributes struct {
	Date       Attr[string] `json:"date"`
	Collection Attr[string] `json:"collection"`
	Paperboy   Attr[bool]   `json:"paperboy"`
	MIMEType   Attr[string] `json:"mimetype"`
	Extension  Attr[string] `json:"extension"`
}

// Classifier sniffs the content type of a file.
type Classifier interface {
	Classify(path string) (string, error)
}

// Extract derives all attributes of path. A failing attribute is recorded
// inline and never prevents the others from being derived.
func Extract(path string, classifier Classifier) *Attributes {
	attrs := &Attributes{
		Date:       Missing[string](),
		Collection: Missing[string](),
		Paperboy:   Value(HasPaperboyFormat(path)),
	}

	if date, ok := DateFromPath(path); ok {
		attrs.Date = Value(date)
	}
	if collection, ok := CollectionFromPath(path); ok {
		attrs.Collection = Value(collection)
	}

	if classifier == nil {
		classifier = source.NewClassifier(source.DefaultBufferSize)
	}
	if mime, err := classifier.Classify(path); err != nil {
		attrs.MIMEType = Failed[string](err)
	} else {
		attrs.MIMEType = Value(mime)
	}

	if ext, err := ExtensionFromPath(path); err != nil {
		attrs.Extension = Failed[string](err)
	} else {
		attrs.Extension = Value(ext)
	}

	return attrs
}

// DateFromPath returns the first date found in the file name, as YYYY-MM-DD.
// Dashed dates take precedence over compact YYYYMMDD ones.
func DateFromPath(path string) (string, bool) {
	name := filepath.Base(path)

	if m := reDashedDate.FindString(name); m != "" {
		return m, true
	}
	if m := reCompactDate.FindString(name); m != "" {
		return m[0:4] + "-" + m[4:6] + "-" + m[6:8], true
	}
	return "", false
}

// CollectionFromPath returns the acronym of the first identifier contained
// in path.
func CollectionFromPath(path string) (string, bool) {
	for _, c := range Collections {
		if strings.Contains(path, c.Identifier) {
			return c.Acronym, true
		}
	}
	return "", false
}

// HasPaperboyFormat reports whether the file name follows the paperboy
// convention: a YYYY-MM-DD prefix and a .log.gz suffix.
func HasPaperboyFormat(path string) bool {
	return rePaperboy.MatchString(filepath.Base(path))
}

// ExtensionFromPath returns the last extension of the file name, including
// the leading dot. Leading dots of hidden files are not an extension.
func ExtensionFromPath(path string) (string, error) {
	name := strings.TrimLeft(filepath.Base(path), ".")
	if ext := filepath.Ext(name); ext != "" {
		return ext, nil
	}
	return "", fmt.Errorf("%w from %s", ErrUndeterminedExtension, path)
}
