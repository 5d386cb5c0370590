package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/KaramelBytes/autolysis/internal/logging"
	"github.com/KaramelBytes/autolysis/internal/utils"
	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ErrLoad matches every *LoadError via errors.Is.
var ErrLoad = errors.New("dataset load failed")

// LoadError reports that a file could not be read or parsed with any
// candidate encoding.
type LoadError struct {
	Path  string
	Tried []string
	Err   error
}

func (e *LoadError) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("could not load dataset %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("could not load dataset %s with any known encoding (%s): %v", e.Path, strings.Join(e.Tried, ", "), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// Encoding is a named strategy for turning raw bytes into UTF-8.
type Encoding struct {
	Name   string
	Decode func([]byte) ([]byte, error)
}

var utf8BOM = []byte("\xef\xbb\xbf")

// UTF8 validates input strictly and strips a leading byte order mark.
var UTF8 = Encoding{Name: "utf-8", Decode: func(raw []byte) ([]byte, error) {
	out, _, err := transform.Bytes(encoding.UTF8Validator, raw)
	if err != nil {
		return nil, err
	}
	return bytes.TrimPrefix(out, utf8BOM), nil
}}

// DefaultEncodings is the fixed order in which encodings are attempted.
var DefaultEncodings = []Encoding{
	UTF8,
	fromEncoding("latin1", charmap.ISO8859_1),
	fromEncoding("iso-8859-1", charmap.ISO8859_1),
	fromEncoding("windows-1252", charmap.Windows1252),
}

func fromEncoding(name string, enc encoding.Encoding) Encoding {
	return Encoding{Name: name, Decode: func(raw []byte) ([]byte, error) {
		return enc.NewDecoder().Bytes(raw)
	}}
}

// sniffBytes caps how much of the file charset detection looks at.
const sniffBytes = 64 << 10

// Loader reads CSV files, trying Encodings in order.
type Loader struct {
	Logger *slog.Logger
	// Encodings overrides DefaultEncodings when non-empty.
	Encodings []Encoding
	// DetectEncoding tries a sniffed charset before the fixed list.
	DetectEncoding bool
}

// Load reads path and returns the first successful parse.
func (l *Loader) Load(path string) (*Dataset, error) {
	logger := l.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	name := utils.DatasetName(path)

	var tried []string
	var lastErr error
	for _, enc := range l.candidates(raw, logger) {
		tried = append(tried, enc.Name)
		decoded, err := enc.Decode(raw)
		if err != nil {
			logger.Warn("failed to decode dataset", "encoding", enc.Name, "error", err)
			lastErr = err
			continue
		}
		ds, err := Parse(name, bytes.NewReader(decoded))
		if err != nil {
			logger.Warn("failed to load dataset", "encoding", enc.Name, "error", err)
			lastErr = err
			continue
		}
		ds.Encoding = enc.Name
		logger.Info("loaded dataset", "path", path, "encoding", enc.Name, "rows", ds.Rows(), "columns", len(ds.columns))
		return ds, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no candidate encodings")
	}
	return nil, &LoadError{Path: path, Tried: tried, Err: lastErr}
}

func (l *Loader) candidates(raw []byte, logger *slog.Logger) []Encoding {
	base := l.Encodings
	if len(base) == 0 {
		base = DefaultEncodings
	}
	if !l.DetectEncoding {
		return base
	}
	enc, ok := sniff(raw)
	if !ok {
		return base
	}
	logger.Debug("detected charset", "encoding", enc.Name)
	out := make([]Encoding, 0, len(base)+1)
	out = append(out, enc)
	for _, b := range base {
		if b.Name != enc.Name {
			out = append(out, b)
		}
	}
	return out
}

// sniff guesses the charset of raw. Low-confidence guesses are ignored.
func sniff(raw []byte) (Encoding, bool) {
	sample := raw
	if len(sample) > sniffBytes {
		sample = sample[:sniffBytes]
	}
	res, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || res == nil || res.Confidence < 50 {
		return Encoding{}, false
	}
	enc, err := htmlindex.Get(res.Charset)
	if err != nil {
		return Encoding{}, false
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return Encoding{}, false
	}
	if name == UTF8.Name {
		return UTF8, true
	}
	return fromEncoding(name, enc), true
}
