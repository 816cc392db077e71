package bundle

import (
	"archive/zip"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"path"
	"strings"

	"github.com/sbwhitecap/tqdm"
	"github.com/sbwhitecap/tqdm/iterators"

	"github.com/wildboar-foundation/datasets/errors"
	"github.com/wildboar-foundation/datasets/serialization"
)

// Verify checks a bundle archive against its sha1sum file and, inside the
// archive, every file against its manifest entry.
func Verify(archivePath string) error {
	if err := verifyChecksumFile(archivePath); err != nil {
		return err
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrapf(err, "error opening bundle %s", archivePath)
	}
	defer r.Close()

	members := make(map[string]*zip.File)
	for _, member := range r.File {
		members[path.Base(member.Name)] = member
	}

	manifestMember := members[ManifestName]
	if manifestMember == nil {
		return errors.Errorf("bundle %s has no %s", archivePath, ManifestName)
	}
	var manifest Manifest
	if err := decodeMember(manifestMember, &manifest); err != nil {
		return err
	}

	var errs errors.Errors
	if err := tqdm.With(iterators.Interval(0, len(manifest.Files)), "Verifying files", func(v interface{}) (brk bool) {
		entry := manifest.Files[v.(int)]
		errs = errors.Append(errs, verifyEntry(members[entry.Name], entry))
		return
	}); err != nil {
		return err
	}
	if errs != nil {
		return errs
	}
	return nil
}

// verifyChecksumFile recomputes the archive digest and compares it with the
// accompanying .sha1 file, which uses the sha1sum output format.
func verifyChecksumFile(archivePath string) error {
	content, err := os.ReadFile(archivePath + ".sha1")
	if err != nil {
		return errors.Wrapf(err, "error reading checksum file")
	}
	fields := strings.Fields(string(content))
	if len(fields) < 1 || len(fields[0]) != hex.EncodedLen(sha1.Size) {
		return errors.Errorf("malformed checksum file %s.sha1", archivePath)
	}

	digest, _, err := sha1File(archivePath)
	if err != nil {
		return err
	}
	if digest != fields[0] {
		return errors.Errorf("checksum mismatch for %s: computed %s, expected %s", archivePath, digest, fields[0])
	}
	return nil
}

func verifyEntry(member *zip.File, entry FileEntry) error {
	if member == nil {
		return errors.Errorf("%s: missing from the archive", entry.Name)
	}

	f, err := member.Open()
	if err != nil {
		return errors.Wrapf(err, "%s", entry.Name)
	}
	defer f.Close()

	h := sha1.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return errors.Wrapf(err, "%s", entry.Name)
	}
	if size != entry.Bytes {
		return errors.Errorf("%s: size mismatch, got %d bytes, manifest says %d", entry.Name, size, entry.Bytes)
	}
	if digest := hex.EncodeToString(h.Sum(nil)); digest != entry.SHA1 {
		return errors.Errorf("%s: sha1 mismatch, got %s, manifest says %s", entry.Name, digest, entry.SHA1)
	}
	return nil
}

func decodeMember(member *zip.File, obj interface{}) error {
	f, err := member.Open()
	if err != nil {
		return errors.Wrapf(err, "error opening %s", member.Name)
	}
	defer f.Close()
	return serialization.DecodeFrom(f, member.Name, obj)
}
