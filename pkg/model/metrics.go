package model

// Accuracy is the fraction of equal labels. Empty input yields 0.
func Accuracy[T comparable](yTrue, yPred []T) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}
