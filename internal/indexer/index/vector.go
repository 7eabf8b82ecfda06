package index

import "math"

// Vector is a sparse term-weight vector. Dims is strictly increasing and
// Weights[i] belongs to Dims[i]. All weights are non-negative.
type Vector struct {
	Dims    []uint32
	Weights []float64
	norm    float64
}

func newVector(dims []uint32, weights []float64, extraNormSq float64) Vector {
	sum := extraNormSq
	for _, w := range weights {
		sum += w * w
	}
	return Vector{Dims: dims, Weights: weights, norm: math.Sqrt(sum)}
}

// Norm is the Euclidean length, including weight of query terms that have
// no dimension in the index.
func (v Vector) Norm() float64 { return v.norm }

// Empty reports whether the vector has no indexed dimension.
func (v Vector) Empty() bool { return len(v.Dims) == 0 }

// Cosine returns the cosine similarity of a and b, or 0 if either has zero
// length.
func Cosine(a, b Vector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	i, j := 0, 0
	for i < len(a.Dims) && j < len(b.Dims) {
		switch {
		case a.Dims[i] == b.Dims[j]:
			dot += a.Weights[i] * b.Weights[j]
			i++
			j++
		case a.Dims[i] < b.Dims[j]:
			i++
		default:
			j++
		}
	}
	sim := dot / (a.norm * b.norm)
	if sim > 1 {
		sim = 1
	}
	return sim
}

// idf is the smoothed inverse document frequency shared by index-time and
// query-time weighting.
func idf(docCount, docFreq int) float64 {
	return math.Log(float64(docCount+1)/float64(docFreq+1)) + 1
}
