package serialization

import (
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/wildboar-foundation/datasets/errors"
)

// Decoder is an interface that matches gob.Decoder and json.Decoder
type Decoder interface {
	// Decode extracts an object from the stream
	Decode(interface{}) error
}

// Decode loads an object from a file. If the path ends with .gz the contents
// will be decompressed. The encoding is then determined by the remaining file
// extension, which can be .json or .gob.
func Decode(path string, obj interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "error loading %s", path)
	}
	defer f.Close()
	return DecodeFrom(f, path, obj)
}

// DecodeFrom is like Decode but reads from the provided reader, using the path
// only to determine the compression and encoding used in the stream.
func DecodeFrom(r io.Reader, path string, obj interface{}) error {
	inpath := path
	if strings.HasSuffix(path, ".gz") {
		path = strings.TrimSuffix(path, ".gz")
		rd, err := gzip.NewReader(r)
		if err != nil {
			return errors.Wrapf(err, "error loading %s", inpath)
		}
		defer rd.Close()
		r = rd
	}

	var d Decoder
	switch {
	case strings.HasSuffix(path, ".json"):
		d = json.NewDecoder(r)
	case strings.HasSuffix(path, ".gob"):
		d = gob.NewDecoder(r)
	default:
		return errors.Errorf("could not find decoder for %s", inpath)
	}

	return d.Decode(obj)
}
