/*
Package table decodes back-reference compressed tables.

A compressed table is laid out as follows, all integers little endian:

	"SCRT"
	rowCount u32
	rowCount × row:
		cellCount u16
		cellCount × cell:
			kind u8
			kind 0, literal:        length u16, UTF-8 bytes
			kind 1, back-reference: column u16, offset u32

A back-reference means "the value in the given column of the row offset rows
above this one". References must point strictly backwards, so offset must be
at least one and no greater than the current row index. The first row is the
header and may only contain literals. Every row must have the same number of
cells as the header.

Any inconsistency fails the whole table as rows further down may depend on
the broken one.
*/
package table

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bodgit/scextract/bytestream"
)

// Signature identifies a compressed table.
const Signature = "SCRT"

const (
	kindLiteral   = 0
	kindReference = 1
)

var (
	// ErrDanglingBackReference is returned when a back-reference points at
	// a row or column that has not been decoded.
	ErrDanglingBackReference = errors.New("table: dangling back-reference")
	// ErrMalformedRow is returned when a row has a different number of
	// cells to the header or contains an unknown cell kind.
	ErrMalformedRow = errors.New("table: malformed row")
	// ErrBadSignature is returned when the input is not a compressed
	// table.
	ErrBadSignature = errors.New("table: bad signature")
)

// RowError records where in a table decoding failed.
type RowError struct {
	Row    int
	Column int
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("table: row %d column %d: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Cell is a single compressed cell token.
type Cell struct {
	Literal string
	// Ref is set for back-references, in which case Column and Offset
	// are used instead of Literal.
	Ref    bool
	Column int
	Offset int
}

// Row is a sequence of compressed cells.
type Row []Cell

// IsCompressed reports whether b starts with the table signature.
func IsCompressed(b []byte) bool {
	return bytes.HasPrefix(b, []byte(Signature))
}

// Parse reads the compressed rows from b without resolving any
// back-references.
func Parse(b []byte) ([]Row, error) {
	if !IsCompressed(b) {
		return nil, ErrBadSignature
	}

	r := bytestream.NewReader(b)
	if err := r.Skip(len(Signature)); err != nil {
		return nil, err
	}

	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	// Each row needs at least its cell count
	if int64(n)*2 > int64(r.Len()) {
		return nil, fmt.Errorf("%w: %d rows declared", bytestream.ErrUnexpectedEnd, n)
	}

	rows := make([]Row, n)
	for i := range rows {
		if rows[i], err = readRow(r, i); err != nil {
			return nil, err
		}
	}

	return rows, nil
}

func readRow(r *bytestream.Reader, index int) (Row, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}

	row := make(Row, n)
	for i := range row {
		kind, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}

		switch kind {
		case kindLiteral:
			if row[i].Literal, err = r.ReadString(2); err != nil {
				return nil, err
			}
		case kindReference:
			column, err := r.ReadUint16()
			if err != nil {
				return nil, err
			}
			offset, err := r.ReadUint32()
			if err != nil {
				return nil, err
			}
			row[i] = Cell{Ref: true, Column: int(column), Offset: int(offset)}
		default:
			return nil, &RowError{Row: index, Column: i, Err: fmt.Errorf("%w: unknown cell kind %d", ErrMalformedRow, kind)}
		}
	}

	return row, nil
}

// Resolve replaces every back-reference with the value it refers to.
func Resolve(rows []Row) ([][]string, error) {
	decoded := make([][]string, 0, len(rows))

	for i, row := range rows {
		if i > 0 && len(row) != len(decoded[0]) {
			return nil, &RowError{
				Row:    i,
				Column: len(row),
				Err:    fmt.Errorf("%w: %d cells, header has %d", ErrMalformedRow, len(row), len(decoded[0])),
			}
		}

		out := make([]string, len(row))
		for j, cell := range row {
			if !cell.Ref {
				out[j] = cell.Literal
				continue
			}

			if cell.Offset < 1 || cell.Offset > i {
				return nil, &RowError{Row: i, Column: j, Err: fmt.Errorf("%w: offset %d", ErrDanglingBackReference, cell.Offset)}
			}
			src := decoded[i-cell.Offset]
			if cell.Column >= len(src) {
				return nil, &RowError{Row: i, Column: j, Err: fmt.Errorf("%w: column %d", ErrDanglingBackReference, cell.Column)}
			}
			out[j] = src[cell.Column]
		}

		decoded = append(decoded, out)
	}

	return decoded, nil
}

// Decode parses and resolves the compressed table in b.
func Decode(b []byte) ([][]string, error) {
	rows, err := Parse(b)
	if err != nil {
		return nil, err
	}
	return Resolve(rows)
}
