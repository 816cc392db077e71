package bundle

import (
	"archive/zip"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildboar-foundation/datasets/emmott"
	"github.com/wildboar-foundation/datasets/npy"
	"github.com/wildboar-foundation/datasets/repository"
)

const sampleARFF = `@relation sample
@attribute att0 numeric
@attribute att1 numeric
@attribute target {1,2}
@data
0.1,0.2,1
0.2,0.1,1
0.0,0.3,1
0.3,0.0,1
0.1,0.1,1
0.2,0.2,1
5.0,5.1,2
5.2,4.9,2
4.8,5.0,2
`

func testRepository(t *testing.T, datasets ...string) *repository.Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datasets.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for _, name := range datasets {
		for _, split := range repository.Splits {
			member, err := w.Create(fmt.Sprintf("%s/%s_%s.arff", name, name, split))
			require.NoError(t, err)
			_, err = member.Write([]byte(sampleARFF))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	repo, err := repository.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestNewBuilderRequiresDatasets(t *testing.T) {
	repo := testRepository(t, "GunPoint")
	_, err := NewBuilder(repo, Options{})
	require.Error(t, err)
	assert.Equal(t, "no datasets included", err.Error())
}

func TestBuild(t *testing.T) {
	repo := testRepository(t, "GunPoint", "Coffee")
	resultDir := filepath.Join(t.TempDir(), "npy")

	builder, err := NewBuilder(repo, Options{
		Name:       "test-bundle",
		ResultDir:  resultDir,
		Include:    []string{"GunPoint", "Coffee"},
		Difficulty: emmott.All,
		Seed:       1980,
		NumGo:      2,
	})
	require.NoError(t, err)

	manifest, err := builder.Build()
	require.NoError(t, err)

	assert.Equal(t, "test-bundle", manifest.Name)
	assert.Equal(t, []string{"Coffee", "GunPoint"}, manifest.Datasets)
	// 2 datasets x 2 splits x (data + labels)
	require.Len(t, manifest.Files, 8)
	assert.True(t, sort.SliceIsSorted(manifest.Files, func(i, j int) bool {
		return manifest.Files[i].Name < manifest.Files[j].Name
	}))

	for _, entry := range manifest.Files {
		path := filepath.Join(resultDir, entry.Name)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, entry.Bytes, info.Size())
	}

	data, err := npy.ReadFile(filepath.Join(resultDir, "GunPoint_TRAIN.npy"))
	require.NoError(t, err)
	require.Len(t, data.Shape, 2)
	assert.Equal(t, 2, data.Shape[1], "class column should be dropped")

	labels, err := npy.ReadFile(filepath.Join(resultDir, "GunPoint_TRAIN_LABELS.npy"))
	require.NoError(t, err)
	require.Len(t, labels.Shape, 1)
	assert.Equal(t, data.Shape[0], labels.Shape[0])
	for _, label := range labels.Float32 {
		assert.True(t, label == 1 || label == -1)
	}

	_, err = os.Stat(filepath.Join(resultDir, ManifestName))
	require.NoError(t, err)
}

func TestBuildDeterministic(t *testing.T) {
	repo := testRepository(t, "GunPoint")

	build := func(dir string) []FileEntry {
		builder, err := NewBuilder(repo, Options{
			ResultDir: dir,
			Include:   []string{"GunPoint"},
			Seed:      7,
		})
		require.NoError(t, err)
		manifest, err := builder.Build()
		require.NoError(t, err)
		return manifest.Files
	}

	first := build(filepath.Join(t.TempDir(), "a"))
	second := build(filepath.Join(t.TempDir(), "b"))
	assert.Equal(t, first, second)
}

func TestBuildMissingDataset(t *testing.T) {
	repo := testRepository(t, "GunPoint")

	builder, err := NewBuilder(repo, Options{
		ResultDir: filepath.Join(t.TempDir(), "npy"),
		Include:   []string{"GunPoint", "NoSuchDataset"},
	})
	require.NoError(t, err)

	_, err = builder.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoSuchDataset")
}

func TestArchiveAndVerify(t *testing.T) {
	repo := testRepository(t, "GunPoint")
	dir := t.TempDir()
	resultDir := filepath.Join(dir, "npy")

	builder, err := NewBuilder(repo, Options{
		Name:      "ucr-tiny",
		ResultDir: resultDir,
		Include:   []string{"GunPoint"},
		Seed:      3,
	})
	require.NoError(t, err)
	_, err = builder.Build()
	require.NoError(t, err)

	dest := filepath.Join(dir, "ucr-tiny.zip")
	require.NoError(t, builder.Archive(dest))

	_, err = os.Stat(dest + ".sha1")
	require.NoError(t, err)

	require.NoError(t, Verify(dest))

	// growing the archive invalidates the checksum
	f, err := os.OpenFile(dest, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte("tamper"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	err = Verify(dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestVerifyEntryMismatch(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "bundle.zip")

	manifest := Manifest{
		Name: "bad",
		Files: []FileEntry{{
			Name:  "A.npy",
			SHA1:  hex.EncodeToString(sha1.New().Sum(nil)), // digest of nothing
			Bytes: 4,
		}},
	}
	encoded, err := json.Marshal(manifest)
	require.NoError(t, err)

	f, err := os.Create(dest)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	member, err := w.Create("npy/" + ManifestName)
	require.NoError(t, err)
	_, err = member.Write(encoded)
	require.NoError(t, err)
	member, err = w.Create("npy/A.npy")
	require.NoError(t, err)
	_, err = member.Write([]byte("1234"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	digest, _, err := sha1File(dest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dest+".sha1", []byte(digest+"  bundle.zip\n"), 0644))

	err = Verify(dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sha1 mismatch")
}

func TestVerifyMissingChecksumFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "bundle.zip")
	require.NoError(t, os.WriteFile(dest, []byte("PK"), 0644))

	require.Error(t, Verify(dest))
}
