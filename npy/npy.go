// Package npy reads and writes NPY version 1.0 files for the little-endian
// float dtypes the bundles use. Arrays are C-order and never pickled.
package npy

import (
	"encoding/binary"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wildboar-foundation/datasets/errors"
)

var magic = []byte("\x93NUMPY")

const headerAlign = 64

// DType identifies the element type of an Array.
type DType string

const (
	// Float32 is numpy dtype <f4
	Float32 DType = "<f4"
	// Float64 is numpy dtype <f8
	Float64 DType = "<f8"
)

// Array is an in-memory ndarray restricted to 1-D and 2-D float data.
// Exactly one of Float32/Float64 is populated, matching DType, holding the
// elements in C order.
type Array struct {
	Shape   []int
	DType   DType
	Float32 []float32
	Float64 []float64
}

// Len returns the number of elements implied by the shape.
func (a *Array) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// FromRows builds a 2-D float32 array from dense rows. All rows must have the
// same length.
func FromRows(rows [][]float32) (*Array, error) {
	if len(rows) == 0 {
		return &Array{Shape: []int{0, 0}, DType: Float32}, nil
	}
	cols := len(rows[0])
	data := make([]float32, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.Errorf("row %d has %d values, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return &Array{Shape: []int{len(rows), cols}, DType: Float32, Float32: data}, nil
}

// FromVector builds a 1-D float32 array.
func FromVector(v []float32) *Array {
	return &Array{Shape: []int{len(v)}, DType: Float32, Float32: v}
}

// Rows returns a 2-D float32 array as dense rows.
func (a *Array) Rows() ([][]float32, error) {
	if len(a.Shape) != 2 || a.DType != Float32 {
		return nil, errors.Errorf("expected a 2-D float32 array, got %s with %d dims", a.DType, len(a.Shape))
	}
	rows := make([][]float32, a.Shape[0])
	for i := range rows {
		rows[i] = a.Float32[i*a.Shape[1] : (i+1)*a.Shape[1]]
	}
	return rows, nil
}

// Write serializes the array to w in NPY 1.0 format.
func Write(w io.Writer, a *Array) error {
	if len(a.Shape) == 0 || len(a.Shape) > 2 {
		return errors.Errorf("unsupported number of dimensions: %d", len(a.Shape))
	}
	switch a.DType {
	case Float32:
		if len(a.Float32) != a.Len() {
			return errors.Errorf("shape %v implies %d elements, have %d", a.Shape, a.Len(), len(a.Float32))
		}
	case Float64:
		if len(a.Float64) != a.Len() {
			return errors.Errorf("shape %v implies %d elements, have %d", a.Shape, a.Len(), len(a.Float64))
		}
	default:
		return errors.Errorf("unsupported dtype %q", a.DType)
	}

	header := "{'descr': '" + string(a.DType) + "', 'fortran_order': False, 'shape': " + shapeRepr(a.Shape) + ", }"
	// magic + version + header length prefix, then pad the header with spaces
	// so the data section starts on a 64 byte boundary, newline terminated
	padded := len(magic) + 2 + 2 + len(header) + 1
	if rem := padded % headerAlign; rem != 0 {
		header += strings.Repeat(" ", headerAlign-rem)
	}
	header += "\n"

	if _, err := w.Write(magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	if a.DType == Float32 {
		return binary.Write(w, binary.LittleEndian, a.Float32)
	}
	return binary.Write(w, binary.LittleEndian, a.Float64)
}

// WriteFile serializes the array to the named file.
func WriteFile(path string, a *Array) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer errors.Defer(&err, f.Close)
	return Write(f, a)
}

// Read deserializes an NPY 1.0 array from r.
func Read(r io.Reader) (*Array, error) {
	head := make([]byte, len(magic)+2+2)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, errors.Wrapf(err, "reading npy preamble")
	}
	if string(head[:len(magic)]) != string(magic) {
		return nil, errors.Errorf("not an npy file")
	}
	if head[6] != 1 || head[7] != 0 {
		return nil, errors.Errorf("unsupported npy version %d.%d", head[6], head[7])
	}
	headerLen := binary.LittleEndian.Uint16(head[8:10])
	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, errors.Wrapf(err, "reading npy header")
	}

	dtype, shape, err := parseHeader(string(headerBytes))
	if err != nil {
		return nil, err
	}

	a := &Array{Shape: shape, DType: dtype}
	switch dtype {
	case Float32:
		a.Float32 = make([]float32, a.Len())
		err = binary.Read(r, binary.LittleEndian, a.Float32)
	case Float64:
		a.Float64 = make([]float64, a.Len())
		err = binary.Read(r, binary.LittleEndian, a.Float64)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading npy data")
	}
	return a, nil
}

// ReadFile deserializes an NPY 1.0 array from the named file.
func ReadFile(path string) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func shapeRepr(shape []int) string {
	if len(shape) == 1 {
		return "(" + strconv.Itoa(shape[0]) + ",)"
	}
	return "(" + strconv.Itoa(shape[0]) + ", " + strconv.Itoa(shape[1]) + ")"
}

func parseHeader(header string) (DType, []int, error) {
	descr, err := headerField(header, "'descr':")
	if err != nil {
		return "", nil, err
	}
	descr = strings.Trim(descr, "'\"")
	dtype := DType(descr)
	if dtype != Float32 && dtype != Float64 {
		return "", nil, errors.Errorf("unsupported dtype %q", descr)
	}

	order, err := headerField(header, "'fortran_order':")
	if err != nil {
		return "", nil, err
	}
	if order != "False" {
		return "", nil, errors.Errorf("fortran order arrays are not supported")
	}

	open := strings.Index(header, "(")
	end := strings.Index(header, ")")
	if open < 0 || end < open {
		return "", nil, errors.Errorf("malformed shape in npy header %q", header)
	}
	var shape []int
	for _, part := range strings.Split(header[open+1:end], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dim, err := strconv.Atoi(part)
		if err != nil {
			return "", nil, errors.Errorf("malformed shape dimension %q", part)
		}
		shape = append(shape, dim)
	}
	if len(shape) == 0 || len(shape) > 2 {
		return "", nil, errors.Errorf("unsupported number of dimensions: %d", len(shape))
	}
	return dtype, shape, nil
}

// headerField extracts the value following key up to the next comma.
func headerField(header, key string) (string, error) {
	idx := strings.Index(header, key)
	if idx < 0 {
		return "", errors.Errorf("missing %s in npy header %q", key, header)
	}
	rest := header[idx+len(key):]
	if end := strings.IndexByte(rest, ','); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), nil
}
