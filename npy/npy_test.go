package npy

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadMatrix(t *testing.T) {
	in, err := FromRows([][]float32{
		{1, 2, 3},
		{4, 5, 6},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))

	// the header block before the data section is 64 byte aligned
	assert.Zero(t, (buf.Len()-4*in.Len())%64)

	out, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, out.Shape)
	assert.Equal(t, Float32, out.DType)
	assert.Equal(t, in.Float32, out.Float32)

	rows, err := out.Rows()
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5, 6}, rows[1])
}

func TestWriteReadVector(t *testing.T) {
	in := FromVector([]float32{1, -1, 1, 1})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))

	out, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, out.Shape)
	assert.Equal(t, in.Float32, out.Float32)
}

func TestWriteReadFloat64(t *testing.T) {
	in := &Array{Shape: []int{2, 2}, DType: Float64, Float64: []float64{0.1, 0.2, 0.3, 0.4}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))

	out, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, in.Float64, out.Float64)
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.npy")

	in, err := FromRows([][]float32{{1.5, 2.5}})
	require.NoError(t, err)
	require.NoError(t, WriteFile(path, in))

	out, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in.Float32, out.Float32)
}

func TestHeaderFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FromVector([]float32{1})))

	header := buf.String()[10:]
	assert.Contains(t, header, "'descr': '<f4'")
	assert.Contains(t, header, "'fortran_order': False")
	assert.Contains(t, header, "'shape': (1,)")
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("PK\x03\x04 not an npy file")))
	require.Error(t, err)
}

func TestFromRowsRagged(t *testing.T) {
	_, err := FromRows([][]float32{{1, 2}, {3}})
	require.Error(t, err)
}
