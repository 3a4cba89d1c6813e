package glove

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"glove/internal/embedding"
	"glove/internal/vocab"
)

var (
	ErrEmpty             = errors.New("no embeddings found")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrZeroVector        = errors.New("zero-length vector cannot be normalized")
	ErrNoRandomSource    = errors.New("random source required for the unknown-word vector")
)

// HeaderMode selects how a metadata header line ("<count> <dim>") is detected.
type HeaderMode int

const (
	// HeaderFirstLine skips only the first non-blank line, and only when it
	// consists of exactly two integers.
	HeaderFirstLine HeaderMode = iota
	// HeaderAnyTwoTokens skips every line with exactly two whitespace
	// separated tokens, wherever it appears. One dimensional entries are lost.
	HeaderAnyTwoTokens
)

// ParseHeaderMode maps the configuration spelling of a header mode.
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch s {
	case "first-line", "":
		return HeaderFirstLine, nil
	case "any-two-tokens":
		return HeaderAnyTwoTokens, nil
	default:
		return 0, fmt.Errorf("unknown header mode %q", s)
	}
}

// Options configures a load.
type Options struct {
	// Dimension is the expected vector size. Zero means take it from the
	// first record; every record is validated either way.
	Dimension int
	Header    HeaderMode
	// Rand draws the unknown-word vector. Required.
	Rand *rand.Rand
	Log  *slog.Logger
}

// Stats describes what a load consumed.
type Stats struct {
	Lines      int
	Headers    int
	Duplicates int
}

// WordEmbeddingMap is a loaded pretrained embedding set.
type WordEmbeddingMap struct {
	// Vectors holds the normalized vector of every word, the unknown word included.
	Vectors map[string][]float64
	Dim     int
	Index   *vocab.Index
	Table   *embedding.FrozenTable
	Stats   Stats
}

var _ embedding.Lookup = (*WordEmbeddingMap)(nil)

// Load reads the embedding file at path.
func Load(path string, opts Options) (*WordEmbeddingMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open embeddings: %w", err)
	}
	defer f.Close()
	m, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Read parses embeddings from r. Each record is "word v1 ... vD", separated by
// tabs when the line holds a tab and by single spaces otherwise.
func Read(r io.Reader, opts Options) (*WordEmbeddingMap, error) {
	if opts.Rand == nil {
		return nil, ErrNoRandomSource
	}
	if opts.Dimension < 0 {
		return nil, fmt.Errorf("invalid dimension %d", opts.Dimension)
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	index := vocab.New()
	vectors := make(map[string][]float64)
	dim := opts.Dimension
	var stats Stats
	first := true

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), " \t\r\n\v\f")
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.Lines++
		if isHeader(line, opts.Header, first) {
			stats.Headers++
			first = false
			continue
		}
		first = false

		word, vec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("line %d: %w: %q has %d components, want %d", lineNo, ErrDimensionMismatch, word, len(vec), dim)
		}
		norm := floats.Norm(vec, 2)
		if norm == 0 {
			return nil, fmt.Errorf("line %d: %w: %q", lineNo, ErrZeroVector, word)
		}
		floats.Scale(1/norm, vec)

		if _, added := index.Add(word); !added {
			stats.Duplicates++
			log.Warn("duplicate embedding ignored", "word", word, "line", lineNo)
			continue
		}
		vectors[word] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read embeddings: %w", err)
	}
	if index.Len() == 1 {
		return nil, ErrEmpty
	}

	vectors[vocab.UnknownWord] = unknownVector(opts.Rand, dim)

	weights := mat.NewDense(index.Len(), dim, nil)
	for id, w := range index.Words() {
		weights.SetRow(id, vectors[w])
	}

	log.Info("embeddings loaded", "words", index.Len()-1, "dim", dim, "headers", stats.Headers, "duplicates", stats.Duplicates)
	return &WordEmbeddingMap{
		Vectors: vectors,
		Dim:     dim,
		Index:   index,
		Table:   embedding.NewFrozenTable(weights),
		Stats:   stats,
	}, nil
}

func isHeader(line string, mode HeaderMode, first bool) bool {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return false
	}
	switch mode {
	case HeaderAnyTwoTokens:
		return true
	default:
		if !first {
			return false
		}
		for _, f := range fields {
			if _, err := strconv.Atoi(f); err != nil {
				return false
			}
		}
		return true
	}
}

func parseRecord(line string) (string, []float64, error) {
	delim := " "
	if strings.Contains(line, "\t") {
		delim = "\t"
	}
	tokens := strings.Split(line, delim)
	if len(tokens) < 2 {
		return "", nil, fmt.Errorf("record %q has no vector", tokens[0])
	}
	vec := make([]float64, len(tokens)-1)
	for i, tok := range tokens[1:] {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return "", nil, fmt.Errorf("word %q component %d: %w", tokens[0], i+1, err)
		}
		vec[i] = v
	}
	return tokens[0], vec, nil
}

// unknownVector samples each component uniformly from [-sqrt(6/dim), sqrt(6/dim)].
func unknownVector(rng *rand.Rand, dim int) []float64 {
	base := math.Sqrt(6 / float64(dim))
	vec := make([]float64, dim)
	for i := range vec {
		vec[i] = (rng.Float64()*2 - 1) * base
	}
	return vec
}

// Dimension returns the embedding size.
func (m *WordEmbeddingMap) Dimension() int { return m.Dim }

// IsOutOfVocabulary reports whether word is absent from the index.
func (m *WordEmbeddingMap) IsOutOfVocabulary(word string) bool {
	return !m.Index.Contains(word)
}

// ID returns the vocabulary id of word, falling back to the unknown-word id.
func (m *WordEmbeddingMap) ID(word string) int { return m.Index.Lookup(word) }

// Embed returns a copy of the vector for word, or of the unknown-word vector.
func (m *WordEmbeddingMap) Embed(word string) []float64 {
	row, _ := m.Table.Row(m.ID(word))
	return row
}

// IDs maps a sentence to vocabulary ids.
func (m *WordEmbeddingMap) IDs(words []string) []int {
	ids := make([]int, len(words))
	for i, w := range words {
		ids[i] = m.ID(w)
	}
	return ids
}
