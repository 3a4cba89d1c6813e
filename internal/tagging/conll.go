package tagging

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Sentence is one block of a CoNLL file. Preds is empty when the file has no
// prediction column.
type Sentence struct {
	Words []string
	Golds []string
	Preds []string
}

// WriteCoNLL writes one "word gold pred" line per token followed by a blank
// line. Nothing is written when the slices differ in length.
func WriteCoNLL(w io.Writer, words, golds, preds []string) error {
	if len(words) != len(golds) || len(words) != len(preds) {
		return fmt.Errorf("conll: %d words, %d golds, %d preds", len(words), len(golds), len(preds))
	}
	bw := bufio.NewWriter(w)
	for i := range words {
		if _, err := fmt.Fprintf(bw, "%s %s %s\n", words[i], golds[i], preds[i]); err != nil {
			return err
		}
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadCoNLL parses blank-line separated sentences of "word gold [pred]" lines.
// Any further columns are ignored.
func ReadCoNLL(r io.Reader) ([]Sentence, error) {
	var (
		out []Sentence
		cur Sentence
	)
	flush := func() {
		if len(cur.Words) > 0 {
			out = append(out, cur)
		}
		cur = Sentence{}
	}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			flush()
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("conll: line %d: want word and gold tag, got %q", lineNo, sc.Text())
		}
		hasPred := len(fields) >= 3
		if len(cur.Words) > 0 && hasPred != (len(cur.Preds) > 0) {
			return nil, fmt.Errorf("conll: line %d: inconsistent prediction column", lineNo)
		}
		cur.Words = append(cur.Words, fields[0])
		cur.Golds = append(cur.Golds, fields[1])
		if hasPred {
			cur.Preds = append(cur.Preds, fields[2])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

// Accuracy counts tokens whose prediction equals the gold tag, over sentences
// that carry predictions.
func Accuracy(sentences []Sentence) (correct, total int) {
	for _, s := range sentences {
		if len(s.Preds) != len(s.Golds) {
			continue
		}
		for i := range s.Golds {
			total++
			if s.Golds[i] == s.Preds[i] {
				correct++
			}
		}
	}
	return correct, total
}
