package tagging

import (
	"fmt"
	"math"

	"glove/internal/vocab"
)

const (
	UnknownWord = vocab.UnknownWord
	EOSWord     = "<EOS>"

	// UnknownEmbedding is the row used for characters and words missing from
	// their dictionaries.
	UnknownEmbedding = 0

	StartTag = "<START>"
	StopTag  = "<STOP>"

	// RandomSeed seeds model initialisation and data shuffling.
	RandomSeed uint64 = 2522620396
	WeightDecay       = 1e-5

	// LogMinValue stands in for log(0) in transition scores.
	LogMinValue = -10000.0

	DefaultDropoutProbability = 0.0
	DefaultIsDual             = 0
)

// DecodingType selects how tag sequences are inferred from emission scores.
type DecodingType int

const (
	Viterbi DecodingType = 1
	Greedy  DecodingType = 2
)

func ParseDecodingType(s string) (DecodingType, error) {
	switch s {
	case "viterbi":
		return Viterbi, nil
	case "greedy":
		return Greedy, nil
	default:
		return 0, fmt.Errorf("unknown decoding type %q", s)
	}
}

func (d DecodingType) String() string {
	switch d {
	case Viterbi:
		return "viterbi"
	case Greedy:
		return "greedy"
	default:
		return fmt.Sprintf("DecodingType(%d)", int(d))
	}
}

// Nonlinearity is the activation applied on top of a projection layer.
type Nonlinearity int

const (
	NonlinNone Nonlinearity = 0
	NonlinReLU Nonlinearity = 1
	NonlinTanh Nonlinearity = 2
)

func ParseNonlinearity(s string) (Nonlinearity, error) {
	switch s {
	case "":
		return NonlinNone, nil
	case "relu":
		return NonlinReLU, nil
	case "tanh":
		return NonlinTanh, nil
	default:
		return 0, fmt.Errorf("unknown nonlinearity %q", s)
	}
}

// Apply transforms x in place and returns it.
func (n Nonlinearity) Apply(x []float64) []float64 {
	switch n {
	case NonlinReLU:
		for i, v := range x {
			if v < 0 {
				x[i] = 0
			}
		}
	case NonlinTanh:
		for i, v := range x {
			x[i] = math.Tanh(v)
		}
	}
	return x
}
