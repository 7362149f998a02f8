package model

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/data"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/dataprep"
)

// RoutineClassifier is a decision tree over scaled feature vectors that
// predicts routine labels. Labels are mapped to tree classes through a
// LabelEncoder, so class codes are as deterministic as the feature codes.
type RoutineClassifier struct {
	tree   *DecisionTreeClassifier
	labels *dataprep.LabelEncoder
}

// NewRoutineClassifier returns an unfitted classifier. opts configure the tree.
func NewRoutineClassifier(opts ...Option) *RoutineClassifier {
	return &RoutineClassifier{tree: NewDecisionTreeClassifier(opts...)}
}

// Fit trains on the scaled matrix X and the routine labels.
func (c *RoutineClassifier) Fit(X [][]float64, labels []string) error {
	enc, y, err := dataprep.FitTransform(data.ColRoutine, labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	tree := NewDecisionTreeClassifier()
	if c.tree != nil {
		*tree = *c.tree
	}
	if err := tree.Fit(X, y); err != nil {
		return err
	}
	c.tree, c.labels = tree, enc
	return nil
}

// Fitted reports whether the classifier can predict.
func (c *RoutineClassifier) Fitted() bool {
	return c != nil && c.labels != nil && c.tree != nil && c.tree.Fitted()
}

// Classes returns the routine labels the model can produce.
func (c *RoutineClassifier) Classes() []string {
	if c.labels == nil {
		return nil
	}
	return c.labels.Classes()
}

// Predict returns the routine label for one scaled feature row.
func (c *RoutineClassifier) Predict(row []float64) (string, error) {
	labels, err := c.PredictAll([][]float64{row})
	if err != nil {
		return "", err
	}
	return labels[0], nil
}

// PredictAll returns routine labels for every row of X.
func (c *RoutineClassifier) PredictAll(X [][]float64) ([]string, error) {
	if !c.Fitted() {
		return nil, ErrNotFitted
	}
	out := make([]string, len(X))
	for i, code := range c.tree.Predict(X) {
		label, err := c.labels.Decode(code)
		if err != nil {
			return nil, err
		}
		out[i] = label
	}
	return out, nil
}

type classifierState struct {
	Tree   []byte
	Labels []byte
}

// MarshalBinary implements encoding.BinaryMarshaler using gob.
func (c *RoutineClassifier) MarshalBinary() ([]byte, error) {
	if !c.Fitted() {
		return nil, ErrNotFitted
	}
	tree, err := c.tree.MarshalBinary()
	if err != nil {
		return nil, err
	}
	labels, err := c.labels.MarshalBinary()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(classifierState{Tree: tree, Labels: labels}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using gob.
func (c *RoutineClassifier) UnmarshalBinary(raw []byte) error {
	var st classifierState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&st); err != nil {
		return err
	}
	tree := &DecisionTreeClassifier{}
	if err := tree.UnmarshalBinary(st.Tree); err != nil {
		return err
	}
	labels := &dataprep.LabelEncoder{}
	if err := labels.UnmarshalBinary(st.Labels); err != nil {
		return err
	}
	if labels.Len() < len(tree.classes) {
		return errors.New("model: label codebook smaller than tree classes")
	}
	c.tree, c.labels = tree, labels
	return nil
}
