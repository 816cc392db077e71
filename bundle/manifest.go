package bundle

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"time"
)

// ManifestName is the name of the manifest file inside the result directory
// and therefore inside the bundle archive.
const ManifestName = "manifest.json"

// Manifest describes a built bundle: the configuration it was built with and
// a digest per emitted file, so a bundle can be verified after distribution.
type Manifest struct {
	Name       string      `json:"name"`
	Version    string      `json:"version"`
	CreatedAt  time.Time   `json:"created_at"`
	Difficulty string      `json:"difficulty"`
	Seed       int64       `json:"seed"`
	Datasets   []string    `json:"datasets"`
	Files      []FileEntry `json:"files"`
}

// FileEntry records one emitted npy file.
type FileEntry struct {
	Name  string `json:"name"`
	SHA1  string `json:"sha1"`
	Bytes int64  `json:"bytes"`
	Shape []int  `json:"shape"`
}

// sha1File returns the hex digest and size of the file at path.
func sha1File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha1.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
