package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionTreeFitsTrainingData(t *testing.T) {
	X := [][]float64{
		{0.1, 2.0}, {0.2, 1.5}, {0.9, 0.3},
		{1.1, 0.2}, {0.5, 5.0}, {0.6, 4.8},
	}
	y := []int{0, 0, 1, 1, 2, 2}

	tree := NewDecisionTreeClassifier()
	require.NoError(t, tree.Fit(X, y))
	assert.True(t, tree.Fitted())
	assert.Equal(t, []int{0, 1, 2}, tree.Classes())
	assert.Equal(t, y, tree.Predict(X))

	probs := tree.PredictProba(X[:1])
	assert.InDelta(t, 1.0, probs[0][0], 1e-12)
}

func TestDecisionTreeDeterministic(t *testing.T) {
	X := [][]float64{{1, 1}, {1, 2}, {2, 1}, {2, 2}, {3, 3}, {0, 3}}
	y := []int{0, 1, 1, 0, 2, 2}

	var first []byte
	for i := 0; i < 5; i++ {
		tree := NewDecisionTreeClassifier()
		require.NoError(t, tree.Fit(X, y))
		raw, err := tree.MarshalBinary()
		require.NoError(t, err)
		if first == nil {
			first = raw
			continue
		}
		assert.Equal(t, first, raw, "run %d produced a different tree", i)
	}
}

func TestDecisionTreeMaxDepth(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}}
	y := []int{0, 1, 0, 1}

	stump := NewDecisionTreeClassifier(WithMaxDepth(1), WithCriterion("entropy"))
	require.NoError(t, stump.Fit(X, y))
	assert.True(t, stump.root.Left.Leaf)
	assert.True(t, stump.root.Right.Leaf)
}

func TestDecisionTreeErrors(t *testing.T) {
	tree := NewDecisionTreeClassifier()
	assert.Error(t, tree.Fit(nil, nil))
	assert.Error(t, tree.Fit([][]float64{{1}}, []int{0, 1}))
	assert.Error(t, tree.Fit([][]float64{{1}, {1, 2}}, []int{0, 1}))

	_, err := tree.MarshalBinary()
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestDecisionTreeThresholdSplits(t *testing.T) {
	tests := []struct {
		name  string
		X     [][]float64
		query [][]float64
	}{
		{"integral values", [][]float64{{20}, {30}}, [][]float64{{10}, {24}, {25}}},
		{"scaled values", [][]float64{{-1}, {1}}, [][]float64{{-3}, {-0.2}, {0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewDecisionTreeClassifier()
			require.NoError(t, tree.Fit(tt.X, []int{0, 1}))
			assert.Equal(t, []int{0, 0, 0}, tree.Predict(tt.query))
			assert.Equal(t, []int{1}, tree.Predict(tt.X[1:]))
		})
	}
}

func TestDecisionTreeRejectsBadInput(t *testing.T) {
	X := [][]float64{{0}, {1}}
	y := []int{0, 1}

	tests := []struct {
		name string
		tree *DecisionTreeClassifier
		X    [][]float64
		want error
	}{
		{"unknown criterion", NewDecisionTreeClassifier(WithCriterion("entropia")), X, ErrUnknownCriterion},
		{"nan feature", NewDecisionTreeClassifier(), [][]float64{{0}, {math.NaN()}}, ErrNonFinite},
		{"inf feature", NewDecisionTreeClassifier(), [][]float64{{math.Inf(-1)}, {1}}, ErrNonFinite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tree.Fit(tt.X, y)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, tt.tree.Fitted())
		})
	}

	// empty criterion means gini
	tree := NewDecisionTreeClassifier(WithCriterion(""))
	require.NoError(t, tree.Fit(X, y))
	assert.Equal(t, y, tree.Predict(X))
}

func TestDecisionTreeBinaryRoundTrip(t *testing.T) {
	X := [][]float64{{-1.2, 0.3}, {0.4, -0.7}, {1.5, 1.1}, {0.05, 0.9}}
	y := []int{3, 1, 3, 2}

	tree := NewDecisionTreeClassifier()
	require.NoError(t, tree.Fit(X, y))

	raw, err := tree.MarshalBinary()
	require.NoError(t, err)

	var restored DecisionTreeClassifier
	require.NoError(t, restored.UnmarshalBinary(raw))
	assert.Equal(t, tree.Predict(X), restored.Predict(X))
	assert.Equal(t, tree.Criterion, restored.Criterion)

	again, err := restored.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, raw, again)
}

func TestImpurity(t *testing.T) {
	assert.Equal(t, 0.0, giniFromCounts([]int{4, 0}))
	assert.InDelta(t, 0.5, giniFromCounts([]int{2, 2}), 1e-12)
	assert.InDelta(t, 1.0, entropyFromCounts([]int{3, 3}), 1e-12)
	assert.Equal(t, 0.0, entropyFromCounts(nil))
}
