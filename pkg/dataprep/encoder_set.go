package dataprep

import (
	"fmt"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/data"
)

// EncoderSet holds one LabelEncoder per categorical column, keyed by column name.
type EncoderSet map[string]*LabelEncoder

// FitEncoderSet fits an encoder for every categorical feature of the schema.
func FitEncoderSet(ds *data.Dataset, schema data.Schema) (EncoderSet, error) {
	set := make(EncoderSet)
	for _, col := range schema.Categorical() {
		enc, err := FitLabelEncoder(col, ds.Column(col))
		if err != nil {
			return nil, err
		}
		set[col] = enc
	}
	return set, nil
}

// Transform encodes value with the encoder of column.
func (s EncoderSet) Transform(column, value string) (int, error) {
	enc, ok := s[column]
	if !ok {
		return 0, fmt.Errorf("dataprep: no encoder for column %s", column)
	}
	return enc.Transform(value)
}

// Vectorize assembles the feature vector of f in schema order, encoding the
// categorical columns.
func (s EncoderSet) Vectorize(schema data.Schema, f data.Features) ([]float64, error) {
	row := make([]float64, schema.Len())
	for i, col := range schema.FeatureNames {
		if schema.IsCategorical(col) {
			v, _ := f.Category(col)
			code, err := s.Transform(col, v)
			if err != nil {
				return nil, err
			}
			row[i] = float64(code)
			continue
		}
		v, ok := f.Numeric(col)
		if !ok {
			return nil, fmt.Errorf("dataprep: column %s is not a feature", col)
		}
		row[i] = v
	}
	return row, nil
}

// VectorizeAll builds the feature matrix of a dataset.
func (s EncoderSet) VectorizeAll(schema data.Schema, ds *data.Dataset) ([][]float64, error) {
	X := make([][]float64, ds.Len())
	for i, r := range ds.Records {
		row, err := s.Vectorize(schema, r.Features)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		X[i] = row
	}
	return X, nil
}
