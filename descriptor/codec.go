package descriptor

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is a serialisation format.
type Format int

const (
	YAML Format = iota
	JSON
	Msgpack
)

func (f Format) String() string {
	switch f {
	case YAML:
		return "yaml"
	case JSON:
		return "json"
	case Msgpack:
		return "msgpack"
	}
	return "unknown"
}

var ErrUnknownFormat = errors.New("descriptor: unknown format")

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return YAML, nil
	case "json":
		return JSON, nil
	case "msgpack", "mp":
		return Msgpack, nil
	}
	return 0, errors.Wrapf(ErrUnknownFormat, "%q", s)
}

// FormatOf returns the format of a file from its extension.
func FormatOf(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Decode reads a document in format f.
func Decode(r io.Reader, f Format) (*Document, error) {
	var doc Document
	var err error
	switch f {
	case YAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	case JSON:
		err = json.NewDecoder(r).Decode(&doc)
	case Msgpack:
		err = msgpack.NewDecoder(r).Decode(&doc)
	default:
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, errors.Wrapf(err, "descriptor: decode %s", f)
	}
	return &doc, nil
}

// Encode writes v in format f.
func Encode(w io.Writer, f Format, v interface{}) error {
	var err error
	switch f {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(v); err == nil {
			err = enc.Close()
		}
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	case Msgpack:
		err = msgpack.NewEncoder(w).Encode(v)
	default:
		return ErrUnknownFormat
	}
	return errors.Wrapf(err, "descriptor: encode %s", f)
}
