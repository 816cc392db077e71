package repository

import (
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/wildboar-foundation/datasets/errors"
)

// Ensure downloads the archive from url to path unless it already exists.
func Ensure(url, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return Download(url, path)
}

// Download fetches the archive from url into path. The download goes through
// a temporary file which is renamed into place, so a partial download never
// leaves a truncated archive behind.
func Download(url, path string) error {
	log.Printf("downloading %s to %s", url, path)

	resp, err := http.DefaultClient.Get(url)
	if err != nil {
		return errors.Wrapf(err, "error downloading %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected HTTP status for url %s: %d / %s", url, resp.StatusCode, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	var source io.Reader = resp.Body
	if resp.ContentLength > 0 {
		source = io.TeeReader(source, &httpProgress{
			total:      resp.ContentLength,
			onProgress: logProgress,
		})
	}
	if _, err := io.Copy(tmp, source); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "error downloading %s", url)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// httpProgress reports received bytes as they pass through a TeeReader.
type httpProgress struct {
	total      int64
	received   int64
	onProgress func(received, total int64)
}

func (p *httpProgress) Write(buf []byte) (int, error) {
	p.received += int64(len(buf))
	p.onProgress(p.received, p.total)
	return len(buf), nil
}

// logProgress prints a log line per 10% increment
var lastPercent = -1

func logProgress(received, total int64) {
	percent := int(float64(received) / float64(total) * 100)
	if percent/10 > lastPercent/10 || received == total {
		log.Printf("downloaded %s / %s (%d%%)",
			humanize.Bytes(uint64(received)), humanize.Bytes(uint64(total)), percent)
	}
	lastPercent = percent
}
