// Package arff parses the subset of the ARFF format used by the UCR/UEA time
// series classification archive: a flat relation of numeric attributes with an
// optional nominal class attribute, dense comma-separated data rows.
package arff

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/wildboar-foundation/datasets/errors"
)

// AttributeType discriminates the attribute declarations we understand.
type AttributeType int

const (
	// Numeric covers the numeric, real and integer ARFF declarations.
	Numeric AttributeType = iota
	// Nominal covers {a,b,c} declarations.
	Nominal
)

// Attribute is a single @attribute declaration.
type Attribute struct {
	Name   string
	Type   AttributeType
	Values []string // nominal values, in declaration order
}

// Relation is a fully parsed ARFF file. Rows are dense float32 records with
// one entry per attribute; missing values ("?") are NaN. Nominal values that
// do not themselves parse as numbers are encoded as their declaration index.
type Relation struct {
	Name       string
	Attributes []Attribute
	Rows       [][]float32
}

// NumAttrs returns the number of attributes per row.
func (r *Relation) NumAttrs() int {
	return len(r.Attributes)
}

// Parse reads a complete ARFF relation from r.
func Parse(r io.Reader) (*Relation, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	rel := &Relation{}
	inData := false
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}

		if !inData {
			lower := strings.ToLower(text)
			switch {
			case strings.HasPrefix(lower, "@relation"):
				rel.Name = strings.Trim(strings.TrimSpace(text[len("@relation"):]), `'"`)
			case strings.HasPrefix(lower, "@attribute"):
				attr, err := parseAttribute(strings.TrimSpace(text[len("@attribute"):]))
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", line)
				}
				rel.Attributes = append(rel.Attributes, attr)
			case strings.HasPrefix(lower, "@data"):
				if len(rel.Attributes) == 0 {
					return nil, errors.Errorf("line %d: @data before any @attribute", line)
				}
				inData = true
			default:
				return nil, errors.Errorf("line %d: unexpected header line %q", line, text)
			}
			continue
		}

		row, err := parseRow(text, rel.Attributes)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		rel.Rows = append(rel.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !inData {
		return nil, errors.Errorf("no @data section found")
	}
	return rel, nil
}

func parseAttribute(decl string) (Attribute, error) {
	name, rest := splitAttributeName(decl)
	if name == "" || rest == "" {
		return Attribute{}, errors.Errorf("malformed attribute declaration %q", decl)
	}

	if strings.HasPrefix(rest, "{") {
		if !strings.HasSuffix(rest, "}") {
			return Attribute{}, errors.Errorf("unterminated nominal specification %q", rest)
		}
		var values []string
		for _, v := range strings.Split(rest[1:len(rest)-1], ",") {
			values = append(values, strings.Trim(strings.TrimSpace(v), `'"`))
		}
		return Attribute{Name: name, Type: Nominal, Values: values}, nil
	}

	switch strings.ToLower(rest) {
	case "numeric", "real", "integer":
		return Attribute{Name: name, Type: Numeric}, nil
	}
	return Attribute{}, errors.Errorf("unsupported attribute type %q", rest)
}

// splitAttributeName splits "name type" handling quoted names with spaces.
func splitAttributeName(decl string) (name, rest string) {
	if len(decl) > 0 && (decl[0] == '\'' || decl[0] == '"') {
		quote := decl[0]
		if end := strings.IndexByte(decl[1:], quote); end >= 0 {
			return decl[1 : end+1], strings.TrimSpace(decl[end+2:])
		}
		return "", ""
	}
	fields := strings.SplitN(decl, " ", 2)
	if len(fields) != 2 {
		return "", ""
	}
	return fields[0], strings.TrimSpace(fields[1])
}

func parseRow(text string, attrs []Attribute) ([]float32, error) {
	fields := strings.Split(text, ",")
	if len(fields) != len(attrs) {
		return nil, errors.Errorf("expected %d values but got %d", len(attrs), len(fields))
	}

	row := make([]float32, len(fields))
	for i, field := range fields {
		field = strings.Trim(strings.TrimSpace(field), `'"`)
		if field == "?" {
			row[i] = float32(math.NaN())
			continue
		}

		val, err := strconv.ParseFloat(field, 32)
		if err == nil {
			row[i] = float32(val)
			continue
		}
		if attrs[i].Type != Nominal {
			return nil, errors.Errorf("invalid numeric value %q for attribute %s", field, attrs[i].Name)
		}

		idx := -1
		for j, v := range attrs[i].Values {
			if v == field {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil, errors.Errorf("value %q not in nominal specification of attribute %s", field, attrs[i].Name)
		}
		row[i] = float32(idx)
	}
	return row, nil
}
