package embedding

// Lookup maps words to fixed pretrained vectors.
// Words outside the vocabulary share the out-of-vocabulary vector.
type Lookup interface {
	Dimension() int
	IsOutOfVocabulary(word string) bool
	Embed(word string) []float64
}
