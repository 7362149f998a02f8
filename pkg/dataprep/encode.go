package dataprep

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownCategory is matched by every UnknownCategoryError.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrEmptyColumn is returned when fitting an encoder on no values.
	ErrEmptyColumn = errors.New("dataprep: cannot fit encoder on empty column")
)

// UnknownCategoryError reports a value that was not seen when the encoder was fit.
type UnknownCategoryError struct {
	Column string
	Value  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for column %s", e.Value, e.Column)
}

func (e *UnknownCategoryError) Is(target error) bool { return target == ErrUnknownCategory }

// LabelEncoder maps the categories of one column to integer codes.
// Codes follow the sorted order of the distinct values, so fitting the same
// values in any order yields the same codebook.
type LabelEncoder struct {
	column  string
	classes []string
	index   map[string]int
}

// FitLabelEncoder builds the codebook for column from values. values is not modified.
func FitLabelEncoder(column string, values []string) (*LabelEncoder, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyColumn, column)
	}
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			classes = append(classes, v)
		}
	}
	sort.Strings(classes)
	return newLabelEncoder(column, classes), nil
}

// FitTransform fits an encoder and returns the codes of values.
func FitTransform(column string, values []string) (*LabelEncoder, []int, error) {
	enc, err := FitLabelEncoder(column, values)
	if err != nil {
		return nil, nil, err
	}
	codes, err := enc.TransformAll(values)
	if err != nil {
		return nil, nil, err
	}
	return enc, codes, nil
}

func newLabelEncoder(column string, classes []string) *LabelEncoder {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelEncoder{column: column, classes: classes, index: index}
}

// Column returns the name of the encoded column.
func (e *LabelEncoder) Column() string { return e.column }

// Len returns the codebook size.
func (e *LabelEncoder) Len() int { return len(e.classes) }

// Classes returns a copy of the codebook in code order.
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Transform returns the code of value. Unseen values are rejected, never defaulted.
func (e *LabelEncoder) Transform(value string) (int, error) {
	code, ok := e.index[value]
	if !ok {
		return 0, &UnknownCategoryError{Column: e.column, Value: value}
	}
	return code, nil
}

// TransformAll encodes every value, stopping at the first unknown one.
func (e *LabelEncoder) TransformAll(values []string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		code, err := e.Transform(v)
		if err != nil {
			return nil, err
		}
		out[i] = code
	}
	return out, nil
}

// Decode returns the category for code.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("dataprep: code %d out of range for column %s", code, e.column)
	}
	return e.classes[code], nil
}

type labelEncoderState struct {
	Column  string
	Classes []string
}

// MarshalBinary implements encoding.BinaryMarshaler using gob.
func (e *LabelEncoder) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(labelEncoderState{Column: e.column, Classes: e.classes}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using gob.
func (e *LabelEncoder) UnmarshalBinary(data []byte) error {
	var st labelEncoderState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return err
	}
	if len(st.Classes) == 0 {
		return fmt.Errorf("dataprep: encoder %s has an empty codebook", st.Column)
	}
	*e = *newLabelEncoder(st.Column, st.Classes)
	return nil
}
