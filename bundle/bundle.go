// Package bundle builds distributable outlier detection bundles: per dataset
// npy files labeled by the emmott package, a manifest, and a checksummed zip
// archive of the whole result directory.
package bundle

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mholt/archiver"

	"github.com/wildboar-foundation/datasets/emmott"
	"github.com/wildboar-foundation/datasets/errors"
	"github.com/wildboar-foundation/datasets/npy"
	"github.com/wildboar-foundation/datasets/repository"
	"github.com/wildboar-foundation/datasets/serialization"
	"github.com/wildboar-foundation/datasets/workerpool"
)

// Options configures a bundle build.
type Options struct {
	// Name of the bundle, used for the archive file name.
	Name string
	// Version recorded in the manifest.
	Version string
	// ResultDir receives the npy files and the manifest.
	ResultDir string
	// Include lists the dataset names to bundle; it must not be empty.
	Include []string
	// Labeling configuration, see emmott.Config.
	Difficulty    emmott.Difficulty
	Contamination float64
	Seed          int64
	// NumGo is the number of datasets processed concurrently.
	NumGo int
}

// Builder builds bundles from a source repository.
type Builder struct {
	repo    *repository.Repository
	labeler *emmott.Labeler
	opts    Options
}

// NewBuilder validates the options and returns a Builder.
func NewBuilder(repo *repository.Repository, opts Options) (*Builder, error) {
	if len(opts.Include) == 0 {
		return nil, errors.New("no datasets included")
	}
	if opts.Name == "" {
		opts.Name = "bundle"
	}
	if opts.Version == "" {
		opts.Version = "1.0"
	}
	if opts.NumGo < 1 {
		opts.NumGo = 1
	}

	labeler, err := emmott.New(emmott.Config{
		Difficulty:    opts.Difficulty,
		Contamination: opts.Contamination,
		Seed:          opts.Seed,
	})
	if err != nil {
		return nil, err
	}
	return &Builder{repo: repo, labeler: labeler, opts: opts}, nil
}

// Build loads, labels and writes every included dataset, then writes the
// manifest. Datasets are processed in parallel; a failing dataset does not
// abort the remaining ones, all failures are reported together.
func (b *Builder) Build() (*Manifest, error) {
	var missing []string
	for _, name := range b.opts.Include {
		if !b.repo.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("datasets not in the archive: %s", strings.Join(missing, ", "))
	}

	if err := os.MkdirAll(b.opts.ResultDir, os.ModePerm); err != nil {
		return nil, err
	}

	start := time.Now()
	manifest := &Manifest{
		Name:       b.opts.Name,
		Version:    b.opts.Version,
		CreatedAt:  start.UTC(),
		Difficulty: string(b.labelerDifficulty()),
		Seed:       b.opts.Seed,
		Datasets:   append([]string(nil), b.opts.Include...),
	}
	sort.Strings(manifest.Datasets)

	var mu sync.Mutex
	var errs errors.Errors

	pool := workerpool.New(b.opts.NumGo)
	var jobs []workerpool.Job
	for _, name := range b.opts.Include {
		name := name
		jobs = append(jobs, func() error {
			entries, err := b.buildDataset(name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = errors.Append(errs, errors.Wrapf(err, "%s", name))
				return nil
			}
			manifest.Files = append(manifest.Files, entries...)
			return nil
		})
	}
	pool.Add(jobs)
	pool.Wait()
	pool.Stop()

	if errs != nil {
		return nil, errs
	}

	sort.Slice(manifest.Files, func(i, j int) bool {
		return manifest.Files[i].Name < manifest.Files[j].Name
	})
	if err := serialization.Encode(filepath.Join(b.opts.ResultDir, ManifestName), manifest); err != nil {
		return nil, errors.Wrapf(err, "error writing manifest")
	}

	log.Printf("built %d datasets (%d files) in %v",
		len(b.opts.Include), len(manifest.Files), time.Since(start))
	return manifest, nil
}

func (b *Builder) labelerDifficulty() emmott.Difficulty {
	if b.opts.Difficulty == "" {
		return emmott.All
	}
	return b.opts.Difficulty
}

// buildDataset writes the labeled data and label files for both splits of the
// named dataset and returns their manifest entries.
func (b *Builder) buildDataset(name string) ([]FileEntry, error) {
	var entries []FileEntry
	for _, split := range repository.Splits {
		rel, err := b.repo.Load(name, split)
		if err != nil {
			return nil, err
		}

		labeled, err := b.labeler.Label(rel.Rows)
		if err != nil {
			return nil, errors.Wrapf(err, "labeling %s split", split)
		}

		data, err := npy.FromRows(labeled.Data)
		if err != nil {
			return nil, err
		}
		entry, err := b.writeArray(fmt.Sprintf("%s_%s.npy", name, split), data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)

		entry, err = b.writeArray(fmt.Sprintf("%s_%s_LABELS.npy", name, split), npy.FromVector(labeled.Labels))
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (b *Builder) writeArray(name string, a *npy.Array) (FileEntry, error) {
	path := filepath.Join(b.opts.ResultDir, name)
	if err := npy.WriteFile(path, a); err != nil {
		return FileEntry{}, errors.Wrapf(err, "error writing %s", name)
	}
	digest, size, err := sha1File(path)
	if err != nil {
		return FileEntry{}, err
	}
	return FileEntry{Name: name, SHA1: digest, Bytes: size, Shape: a.Shape}, nil
}

// Archive zips the result directory into dest and writes a sha1sum style
// checksum file next to it. An existing archive at dest is replaced.
func (b *Builder) Archive(dest string) error {
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := archiver.NewZip().Archive([]string{b.opts.ResultDir}, dest); err != nil {
		return errors.Wrapf(err, "error archiving %s", b.opts.ResultDir)
	}

	digest, size, err := sha1File(dest)
	if err != nil {
		return err
	}
	checksum := fmt.Sprintf("%s  %s\n", digest, filepath.Base(dest))
	if err := os.WriteFile(dest+".sha1", []byte(checksum), 0644); err != nil {
		return err
	}

	log.Printf("wrote %s (%s), sha1 %s", dest, humanize.Bytes(uint64(size)), digest)
	return nil
}
