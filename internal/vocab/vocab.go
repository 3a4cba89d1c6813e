package vocab

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const (
	// UnknownWord is the sentinel token that every out-of-vocabulary word maps to.
	UnknownWord = "<UNK>"
	// UnknownID is the id reserved for UnknownWord.
	UnknownID = 0
)

// Index maps words to dense, contiguous ids. Id 0 always holds UnknownWord.
type Index struct {
	ids   map[string]int
	words []string
}

// New returns an index holding only the sentinel.
func New() *Index {
	return &Index{
		ids:   map[string]int{UnknownWord: UnknownID},
		words: []string{UnknownWord},
	}
}

// Add assigns the next unused id to word. Adding a known word returns its id
// and false.
func (x *Index) Add(word string) (int, bool) {
	if id, ok := x.ids[word]; ok {
		return id, false
	}
	id := len(x.words)
	x.ids[word] = id
	x.words = append(x.words, word)
	return id, true
}

// ID returns the id of word and whether it is in the index.
func (x *Index) ID(word string) (int, bool) {
	id, ok := x.ids[word]
	return id, ok
}

// Lookup returns the id of word, or UnknownID when it is absent.
func (x *Index) Lookup(word string) int {
	if id, ok := x.ids[word]; ok {
		return id
	}
	return UnknownID
}

func (x *Index) Contains(word string) bool {
	_, ok := x.ids[word]
	return ok
}

// Word returns the word stored under id.
func (x *Index) Word(id int) (string, bool) {
	if id < 0 || id >= len(x.words) {
		return "", false
	}
	return x.words[id], true
}

func (x *Index) Len() int { return len(x.words) }

// Words returns all words in id order, sentinel first.
func (x *Index) Words() []string {
	out := make([]string, len(x.words))
	copy(out, x.words)
	return out
}

// Map returns a copy of the word to id mapping.
func (x *Index) Map() map[string]int {
	out := make(map[string]int, len(x.ids))
	for w, id := range x.ids {
		out[w] = id
	}
	return out
}

// Save writes values as a commented, tab separated dictionary block:
// a "# comment" line, one "key\tvalue" line per entry sorted by key, and a
// trailing blank line.
func Save(w io.Writer, values map[string]int, comment string) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "# %s\n", comment); err != nil {
		return err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(bw, "%s\t%d\n", k, values[k]); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadStringIDs parses a dictionary written by Save. Comment lines and blank
// lines are skipped.
func ReadStringIDs(r io.Reader) (map[string]int, error) {
	out := make(map[string]int)
	err := scanPairs(r, func(k string, v int) error {
		out[k] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadCharIDs parses a dictionary whose keys are decimal unicode code points.
func ReadCharIDs(r io.Reader) (map[rune]int, error) {
	out := make(map[rune]int)
	err := scanPairs(r, func(k string, v int) error {
		cp, err := strconv.ParseInt(k, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid code point %q: %w", k, err)
		}
		out[rune(cp)] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanPairs(r io.Reader, fn func(k string, v int) error) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "\t")
		if !ok || strings.Contains(v, "\t") {
			return fmt.Errorf("line %d: expected key<TAB>value, got %q", lineNo, line)
		}
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := fn(k, id); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return sc.Err()
}
