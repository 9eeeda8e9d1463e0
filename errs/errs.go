// Package errs defines the sentinel errors returned by schemsearch and the
// DecodeError wrapper that attaches field and path context to them.
//
// Callers match failures with errors.Is against the sentinels and extract the
// context with errors.As:
//
//	s, err := schematic.Load(path)
//	var derr *errs.DecodeError
//	if errors.As(err, &derr) && errors.Is(err, errs.ErrMissingField) {
//	    log.Printf("%s: missing %s", derr.Path, derr.Field)
//	}
package errs

import (
	"errors"
	"strings"
)

var (
	// ErrMissingField is returned when a required NBT field is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrWrongFieldType is returned when a field is stored with an unexpected tag kind.
	ErrWrongFieldType = errors.New("wrong field type")
	// ErrUnknownVersion is returned for unsupported or undeterminable schema versions.
	ErrUnknownVersion = errors.New("unknown schematic version")
	// ErrVarintOutOfRange is returned when a varint needs more than 5 groups.
	ErrVarintOutOfRange = errors.New("varint out of range")
	// ErrVarintTruncated is returned when the stream ends inside a varint.
	ErrVarintTruncated = errors.New("varint truncated")
	// ErrMalformedNBT is returned when the tagged document cannot be parsed.
	ErrMalformedNBT = errors.New("malformed nbt document")
	// ErrDimensionMismatch is returned when the block data length differs from width*height*length.
	ErrDimensionMismatch = errors.New("block data length does not match dimensions")
	// ErrInvalidBlockID is returned when block data references an id without a palette entry.
	ErrInvalidBlockID = errors.New("block id not in palette")
	// ErrInvalidPosition is returned when a position field does not hold exactly 3 values.
	ErrInvalidPosition = errors.New("invalid position")
	// ErrDecompress is returned when the envelope cannot be decompressed.
	ErrDecompress = errors.New("decompression failed")
	// ErrDecompressLimit is returned when the decompressed document exceeds the configured limit.
	ErrDecompressLimit = errors.New("decompressed size exceeds limit")
	// ErrIO is returned when a schematic source cannot be read.
	ErrIO = errors.New("i/o failure")
	// ErrInvalidThreshold is returned for thresholds outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be within [0, 1]")
)

// DecodeError describes a failure to decode one schematic.
//
// Field names the offending NBT field using dotted paths for nested fields
// (e.g. "Blocks.Palette"). Path is set when the schematic was read from a file.
type DecodeError struct {
	Field string
	Path  string
	Err   error
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid schematic")
	if e.Path != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Path)
	}
	sb.WriteString(": ")
	if e.Field != "" {
		sb.WriteString(e.Field)
		sb.WriteString(": ")
	}
	if e.Err != nil {
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Field wraps err with the name of the field it concerns.
//
// If err is already a DecodeError, the field name is prefixed to the existing
// one so that nested readers produce paths like "Blocks.Palette".
func Field(field string, err error) error {
	if err == nil {
		return nil
	}

	var derr *DecodeError
	if errors.As(err, &derr) {
		joined := field
		if derr.Field != "" {
			joined = field + "." + derr.Field
		}

		return &DecodeError{Field: joined, Path: derr.Path, Err: derr.Err}
	}

	return &DecodeError{Field: field, Err: err}
}

// WithPath attaches a source path to err, wrapping it in a DecodeError if needed.
func WithPath(path string, err error) error {
	if err == nil {
		return nil
	}

	var derr *DecodeError
	if errors.As(err, &derr) {
		return &DecodeError{Field: derr.Field, Path: path, Err: derr.Err}
	}

	return &DecodeError{Path: path, Err: err}
}
