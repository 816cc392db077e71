// Package repository gives access to a local copy of the UCR/UEA univariate
// time series classification archive: a zip file of per-dataset ARFF files
// with _TRAIN/_TEST splits.
package repository

import (
	"archive/zip"
	"path"
	"sort"
	"strings"

	"github.com/wildboar-foundation/datasets/arff"
	"github.com/wildboar-foundation/datasets/errors"
)

// DefaultURL points at the 2018 univariate archive (128 datasets).
const DefaultURL = "http://www.timeseriesclassification.com/Downloads/Archives/Univariate2018_arff.zip"

// Split names the two variants each dataset ships with.
type Split string

const (
	// Train is the _TRAIN split
	Train Split = "TRAIN"
	// Test is the _TEST split
	Test Split = "TEST"
)

// Splits lists the splits in the order bundles are written.
var Splits = []Split{Train, Test}

// Repository is an open archive with its members indexed by dataset name and
// split. Members that are not <Name>_TRAIN.arff or <Name>_TEST.arff are
// ignored, matching the member filter of the original packaging script.
type Repository struct {
	archive *zip.ReadCloser
	index   map[string]map[Split]*zip.File
}

// Open opens the archive at path and indexes its members.
func Open(path string) (*Repository, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening dataset archive %s", path)
	}

	r := &Repository{
		archive: archive,
		index:   make(map[string]map[Split]*zip.File),
	}
	for _, member := range archive.File {
		name, split, ok := parseMember(member.Name)
		if !ok {
			continue
		}
		if r.index[name] == nil {
			r.index[name] = make(map[Split]*zip.File)
		}
		r.index[name][split] = member
	}
	return r, nil
}

// Close closes the underlying archive.
func (r *Repository) Close() error {
	return r.archive.Close()
}

// Datasets returns the sorted names of all datasets with both splits present.
func (r *Repository) Datasets() []string {
	var names []string
	for name, splits := range r.index {
		if splits[Train] != nil && splits[Test] != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Has reports whether the named dataset exists with both splits.
func (r *Repository) Has(name string) bool {
	splits := r.index[name]
	return splits != nil && splits[Train] != nil && splits[Test] != nil
}

// Load parses the requested split of the named dataset.
func (r *Repository) Load(name string, split Split) (*arff.Relation, error) {
	member := r.index[name][split]
	if member == nil {
		return nil, errors.Errorf("dataset %s has no %s split in the archive", name, split)
	}

	f, err := member.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "error opening archive member %s", member.Name)
	}
	defer f.Close()

	rel, err := arff.Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing %s", member.Name)
	}
	return rel, nil
}

// parseMember maps an archive member path to its dataset name and split.
func parseMember(member string) (string, Split, bool) {
	base := path.Base(member)
	ext := path.Ext(base)
	if ext != ".arff" {
		return "", "", false
	}
	stem := strings.TrimSuffix(base, ext)
	for _, split := range Splits {
		if strings.HasSuffix(stem, "_"+string(split)) {
			return strings.TrimSuffix(stem, "_"+string(split)), split, true
		}
	}
	return "", "", false
}
