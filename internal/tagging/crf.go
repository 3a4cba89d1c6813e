package tagging

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CRF holds the transition scores of a linear-chain CRF over a fixed tag set.
// Transitions is (K+2)x(K+2) for K tags and is indexed [from, to]; the two
// extra rows and columns are the <START> and <STOP> states.
type CRF struct {
	Tags        []string
	Transitions *mat.Dense
	index       map[string]int
}

// NewCRF builds a CRF with zero transition scores, except that moving into
// <START> or out of <STOP> scores LogMinValue.
func NewCRF(tags []string) (*CRF, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("crf: no tags")
	}
	index := make(map[string]int, len(tags))
	for i, t := range tags {
		if t == StartTag || t == StopTag {
			return nil, fmt.Errorf("crf: tag %q is reserved", t)
		}
		if _, dup := index[t]; dup {
			return nil, fmt.Errorf("crf: duplicate tag %q", t)
		}
		index[t] = i
	}
	c := &CRF{Tags: append([]string(nil), tags...), index: index}
	size := len(tags) + 2
	c.Transitions = mat.NewDense(size, size, nil)
	for i := 0; i < size; i++ {
		c.Transitions.Set(i, c.start(), LogMinValue)
		c.Transitions.Set(c.stop(), i, LogMinValue)
	}
	return c, nil
}

func (c *CRF) start() int { return len(c.Tags) }
func (c *CRF) stop() int  { return len(c.Tags) + 1 }

// TagID returns the column of tag in emission matrices.
func (c *CRF) TagID(tag string) (int, bool) {
	id, ok := c.index[tag]
	return id, ok
}

// SetTransition sets the score of moving from one tag to another. StartTag
// is accepted as from and StopTag as to.
func (c *CRF) SetTransition(from, to string, score float64) error {
	i, ok := c.index[from]
	if from == StartTag {
		i, ok = c.start(), true
	}
	if !ok {
		return fmt.Errorf("crf: unknown tag %q", from)
	}
	j, ok := c.index[to]
	if to == StopTag {
		j, ok = c.stop(), true
	}
	if !ok {
		return fmt.Errorf("crf: unknown tag %q", to)
	}
	c.Transitions.Set(i, j, score)
	return nil
}

func (c *CRF) checkEmissions(emissions mat.Matrix) (int, error) {
	n, k := emissions.Dims()
	if k != len(c.Tags) {
		return 0, fmt.Errorf("crf: emissions have %d columns, want %d", k, len(c.Tags))
	}
	if n == 0 {
		return 0, fmt.Errorf("crf: empty sentence")
	}
	return n, nil
}

// ForwardScore returns the log partition function: the log-sum-exp of the
// scores of every tag sequence.
func (c *CRF) ForwardScore(emissions mat.Matrix) (float64, error) {
	n, err := c.checkEmissions(emissions)
	if err != nil {
		return 0, err
	}
	k := len(c.Tags)
	alpha := make([]float64, k)
	for j := 0; j < k; j++ {
		alpha[j] = c.Transitions.At(c.start(), j) + emissions.At(0, j)
	}
	next := make([]float64, k)
	terms := make([]float64, k)
	for t := 1; t < n; t++ {
		for j := 0; j < k; j++ {
			for i := 0; i < k; i++ {
				terms[i] = alpha[i] + c.Transitions.At(i, j)
			}
			next[j] = LogSumExp(terms) + emissions.At(t, j)
		}
		alpha, next = next, alpha
	}
	for i := 0; i < k; i++ {
		terms[i] = alpha[i] + c.Transitions.At(i, c.stop())
	}
	return LogSumExp(terms), nil
}

// GoldScore returns the score of one tag sequence.
func (c *CRF) GoldScore(emissions mat.Matrix, tags []int) (float64, error) {
	n, err := c.checkEmissions(emissions)
	if err != nil {
		return 0, err
	}
	if len(tags) != n {
		return 0, fmt.Errorf("crf: %d tags for %d positions", len(tags), n)
	}
	score := 0.0
	prev := c.start()
	for t, y := range tags {
		if y < 0 || y >= len(c.Tags) {
			return 0, fmt.Errorf("crf: position %d: tag %d out of range", t, y)
		}
		score += c.Transitions.At(prev, y) + emissions.At(t, y)
		prev = y
	}
	return score + c.Transitions.At(prev, c.stop()), nil
}

// Loss is the negative log likelihood of tags.
func (c *CRF) Loss(emissions mat.Matrix, tags []int) (float64, error) {
	forward, err := c.ForwardScore(emissions)
	if err != nil {
		return 0, err
	}
	gold, err := c.GoldScore(emissions, tags)
	if err != nil {
		return 0, err
	}
	return forward - gold, nil
}

// Viterbi returns the highest scoring tag sequence and its score.
func (c *CRF) Viterbi(emissions mat.Matrix) ([]int, float64, error) {
	n, err := c.checkEmissions(emissions)
	if err != nil {
		return nil, 0, err
	}
	k := len(c.Tags)
	dp := make([]float64, k)
	for j := 0; j < k; j++ {
		dp[j] = c.Transitions.At(c.start(), j) + emissions.At(0, j)
	}
	backptr := make([][]int, n)
	next := make([]float64, k)
	for t := 1; t < n; t++ {
		backptr[t] = make([]int, k)
		for j := 0; j < k; j++ {
			best, bestPrev := math.Inf(-1), 0
			for i := 0; i < k; i++ {
				if s := dp[i] + c.Transitions.At(i, j); s > best {
					best, bestPrev = s, i
				}
			}
			next[j] = best + emissions.At(t, j)
			backptr[t][j] = bestPrev
		}
		dp, next = next, dp
	}

	best, last := math.Inf(-1), 0
	for i := 0; i < k; i++ {
		if s := dp[i] + c.Transitions.At(i, c.stop()); s > best {
			best, last = s, i
		}
	}
	path := make([]int, n)
	path[n-1] = last
	for t := n - 1; t > 0; t-- {
		path[t-1] = backptr[t][path[t]]
	}
	return path, best, nil
}

// Decode runs Viterbi or greedy decoding and returns tag names.
func (c *CRF) Decode(emissions mat.Matrix, how DecodingType) ([]string, error) {
	var ids []int
	switch how {
	case Viterbi:
		path, _, err := c.Viterbi(emissions)
		if err != nil {
			return nil, err
		}
		ids = path
	case Greedy:
		if _, err := c.checkEmissions(emissions); err != nil {
			return nil, err
		}
		ids = GreedyDecode(emissions)
	default:
		return nil, fmt.Errorf("crf: unsupported decoding %v", how)
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = c.Tags[id]
	}
	return out, nil
}
