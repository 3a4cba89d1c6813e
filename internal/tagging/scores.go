package tagging

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogSumExp computes log(sum(exp(vec))) shifted by the maximum for stability.
// It returns -Inf for an empty vector or one holding only -Inf.
func LogSumExp(vec []float64) float64 {
	if len(vec) == 0 {
		return math.Inf(-1)
	}
	maxScore := floats.Max(vec)
	if math.IsInf(maxScore, 0) {
		return maxScore
	}
	sum := 0.0
	for _, v := range vec {
		sum += math.Exp(v - maxScore)
	}
	return maxScore + math.Log(sum)
}

// Argmax returns the index of the largest value, the first one on ties.
func Argmax(vec []float64) int {
	best := 0
	for i, v := range vec {
		if v > vec[best] {
			best = i
		}
	}
	return best
}

// GreedyDecode picks the best scoring tag for each position independently.
// emissions is a sequence length x tag count matrix.
func GreedyDecode(emissions mat.Matrix) []int {
	n, _ := emissions.Dims()
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = Argmax(mat.Row(nil, i, emissions))
	}
	return out
}

// SentenceLossGreedy is the mean cross-entropy of golds under the row-wise
// softmax of emissions.
func SentenceLossGreedy(emissions mat.Matrix, golds []int) (float64, error) {
	n, tags := emissions.Dims()
	if n != len(golds) {
		return 0, fmt.Errorf("emission rows %d != gold tags %d", n, len(golds))
	}
	if n == 0 {
		return 0, fmt.Errorf("empty sentence")
	}
	loss := 0.0
	for i, gold := range golds {
		if gold < 0 || gold >= tags {
			return 0, fmt.Errorf("position %d: gold tag %d out of range [0,%d)", i, gold, tags)
		}
		row := mat.Row(nil, i, emissions)
		loss += LogSumExp(row) - row[gold]
	}
	return loss / float64(n), nil
}

// EmissionScoresToArrays copies a score matrix into nested slices.
func EmissionScoresToArrays(emissions mat.Matrix) [][]float64 {
	n, _ := emissions.Dims()
	out := make([][]float64, n)
	for i := range out {
		out[i] = mat.Row(nil, i, emissions)
	}
	return out
}

// Dropout zeroes each component with probability p and scales survivors by
// 1/(1-p). It returns x unchanged when disabled or p <= 0.
func Dropout(x []float64, p float64, enabled bool, rng *rand.Rand) []float64 {
	if !enabled || p <= 0 {
		return x
	}
	out := make([]float64, len(x))
	if p >= 1 {
		return out
	}
	scale := 1 / (1 - p)
	for i, v := range x {
		if rng.Float64() >= p {
			out[i] = v * scale
		}
	}
	return out
}

// CharIDs maps the runes of word through c2i, using UnknownEmbedding for
// characters missing from the dictionary.
func CharIDs(word string, c2i map[rune]int) []int {
	ids := make([]int, 0, len(word))
	for _, c := range word {
		id, ok := c2i[c]
		if !ok {
			id = UnknownEmbedding
		}
		ids = append(ids, id)
	}
	return ids
}
