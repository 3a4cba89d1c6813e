package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"glove/internal/tagging"
	"glove/internal/tui"
)

func newInspectCmd(a *app) *cobra.Command {
	var showVector bool
	cmd := &cobra.Command{
		Use:   "inspect [words...]",
		Short: "Load the embeddings and report on the vocabulary",
		Long: `Load the configured embedding file and print a summary. For each word
given, print its vocabulary id and whether it falls back to <UNK>.

Examples:
  glove inspect
  glove inspect --vector the cat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, summary, err := a.loadService("memory")
			if err != nil {
				return err
			}
			m, err := svc.Lookup()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, summary)
			for _, w := range args {
				fmt.Fprintf(out, "%s\tid=%d\toov=%t\n", w, m.ID(w), m.IsOutOfVocabulary(w))
				if showVector {
					fmt.Fprintln(out, formatVector(m.Embed(w)))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showVector, "vector", false, "print the normalized vector of each word")
	return cmd
}

func newSimilarCmd(a *app) *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "similar WORD",
		Short: "List the nearest neighbours of a word",
		Long: `List the vocabulary words closest to WORD by cosine similarity.
Unknown words are searched with the <UNK> vector.

Examples:
  glove similar king
  glove similar --top-k 3 paris`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := a.loadService(a.cfg.VectorStore.Type)
			if err != nil {
				return err
			}
			if topK <= 0 {
				topK = a.cfg.Search.TopK
			}
			res, err := svc.Similar(args[0], topK)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.OutOfVocabulary {
				fmt.Fprintf(out, "%s is out of vocabulary\n", res.Word)
			}
			for i, n := range res.Neighbors {
				fmt.Fprintf(out, "%d\t%s\t%.4f\n", i+1, n.Entry.Word, n.Score)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of neighbours (default search.top_k)")
	return cmd
}

func newCoverageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "coverage FILE",
		Short: "Measure vocabulary coverage of a CoNLL file",
		Long: `Read a CoNLL file of "word gold [pred]" lines and report how many tokens
fall back to <UNK>. When the file carries a prediction column, tagging
accuracy is reported as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			sentences, err := tagging.ReadCoNLL(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			svc, _, err := a.loadService("memory")
			if err != nil {
				return err
			}
			report, err := svc.Coverage(sentences)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sentences: %d\ntokens: %d\noov tokens: %d (%.2f%%)\nunique oov: %d\n",
				report.Sentences, report.Tokens, report.OOVTokens, 100*report.OOVRate(), report.UniqueOOV)
			if report.Predicted > 0 {
				fmt.Fprintf(out, "accuracy: %d/%d (%.2f%%)\n", report.Correct, report.Predicted,
					100*float64(report.Correct)/float64(report.Predicted))
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Index the vocabulary in Qdrant",
		Long: `Load the embedding file and upsert every vocabulary vector into the
Qdrant collection from vector_store.qdrant, recreating it first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, summary, err := a.loadService("qdrant")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", summary, a.cfg.VectorStore.Qdrant.Collection)
			return nil
		},
	}
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse nearest neighbours interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, summary, err := a.loadService(a.cfg.VectorStore.Type)
			if err != nil {
				return err
			}
			p := tea.NewProgram(tui.New(svc, summary, a.cfg.Search.TopK), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

func newDecodeCmd(a *app) *cobra.Command {
	var (
		tags        []string
		transitions []string
	)
	cmd := &cobra.Command{
		Use:   "decode FILE",
		Short: "Decode a tag sequence from emission scores",
		Long: `Read one line of emission scores per token, one column per tag, and
print the best tag sequence. The decoder (viterbi or greedy) and the
nonlinearity applied to each row come from the tagger config.

Examples:
  glove decode --tags B,I,O scores.txt
  glove decode --tags B,I,O --transition 'O->I=-10000' scores.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			how, err := tagging.ParseDecodingType(a.cfg.Tagger.Decoding)
			if err != nil {
				return err
			}
			nonlin, err := tagging.ParseNonlinearity(a.cfg.Tagger.Nonlinearity)
			if err != nil {
				return err
			}
			crf, err := tagging.NewCRF(tags)
			if err != nil {
				return err
			}
			for _, t := range transitions {
				from, to, score, err := parseTransition(t)
				if err != nil {
					return err
				}
				if err := crf.SetTransition(from, to, score); err != nil {
					return err
				}
			}
			emissions, err := readEmissions(args[0], len(tags), nonlin)
			if err != nil {
				return err
			}
			path, err := crf.Decode(emissions, how)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(path, " "))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "tag set, one per emission column")
	cmd.Flags().StringArrayVar(&transitions, "transition", nil, "transition score FROM->TO=SCORE (repeatable)")
	_ = cmd.MarkFlagRequired("tags")
	return cmd
}

// parseTransition splits "FROM->TO=SCORE".
func parseTransition(s string) (string, string, float64, error) {
	pair, score, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", 0, fmt.Errorf("transition %q: missing =SCORE", s)
	}
	from, to, ok := strings.Cut(pair, "->")
	if !ok {
		return "", "", 0, fmt.Errorf("transition %q: missing FROM->TO", s)
	}
	v, err := strconv.ParseFloat(score, 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("transition %q: %w", s, err)
	}
	return from, to, v, nil
}

func readEmissions(path string, cols int, nonlin tagging.Nonlinearity) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var data []float64
	rows := 0
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != cols {
			return nil, fmt.Errorf("%s:%d: %d scores, want %d", path, line, len(fields), cols)
		}
		row := make([]float64, cols)
		for i, s := range fields {
			if row[i], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, line, err)
			}
		}
		data = append(data, nonlin.Apply(row)...)
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%s: no emission rows", path)
	}
	return mat.NewDense(rows, cols, data), nil
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'f', 6, 64)
	}
	return strings.Join(parts, " ")
}
