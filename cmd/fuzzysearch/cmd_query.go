package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/query"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/search"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/segment"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/tokenizer"
)

type queryFlags struct {
	field         string
	mode          string
	distance      uint8
	prefix        bool
	transposition bool
	limit         int
	asJSON        bool
}

func newQueryCmd(a *app) *cobra.Command {
	qf := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a term, prefix or fuzzy query over the segment directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("transposition") {
				qf.transposition = a.cfg.Search.TranspositionCostOne
			}
			return a.runQuery(cmd, args[0], *qf)
		},
	}
	f := cmd.Flags()
	f.StringVar(&qf.field, "field", "", "field to search (required)")
	f.StringVar(&qf.mode, "mode", "fuzzy", "query mode: fuzzy, term or prefix")
	f.Uint8Var(&qf.distance, "distance", 1, "maximum edit distance for fuzzy mode")
	f.BoolVar(&qf.prefix, "prefix", false, "fuzzy mode matches terms with a prefix within distance")
	f.BoolVar(&qf.transposition, "transposition", true, "count an adjacent transposition as one edit (default search.transpositionCostOne)")
	f.IntVar(&qf.limit, "limit", 0, "maximum hits to print (default search.defaultLimit)")
	f.BoolVar(&qf.asJSON, "json", false, "print hits as JSON")
	cmd.MarkFlagRequired("field")
	return cmd
}

func (a *app) runQuery(cmd *cobra.Command, text string, qf queryFlags) error {
	cfg := a.cfg
	readers, err := segment.OpenDir(cfg.Index.DataDir)
	if err != nil {
		return err
	}
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()
	s, err := segment.CommonSchema(readers)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("no segments in %s", cfg.Index.DataDir)
	}

	if qf.distance > cfg.Search.MaxEditDistance {
		return fmt.Errorf("distance %d exceeds search.maxEditDistance %d", qf.distance, cfg.Search.MaxEditDistance)
	}
	q, err := buildQuery(s, text, qf)
	if err != nil {
		return err
	}
	limit := qf.limit
	if limit <= 0 {
		limit = cfg.Search.DefaultLimit
	}

	searcher := search.New(segmentReaders(readers), search.Options{
		Parallelism:        cfg.Search.Parallelism,
		Timeout:            cfg.Search.Timeout,
		SkipFailedSegments: cfg.Search.SkipFailedSegments,
		Trace:              cfg.Tracing.Enabled,
	})
	hits, total, err := searcher.TopDocs(cmd.Context(), q, limit)
	if err != nil {
		return err
	}
	return printHits(cmd.OutOrStdout(), q, hits, total, qf.asJSON)
}

// buildQuery analyzes text with the field's analyzer and builds the query
// the flags ask for. Prefix text is normalised and split but not stemmed.
func buildQuery(s *schema.Schema, text string, flags queryFlags) (query.Query, error) {
	field, ok := s.Field(flags.field)
	if !ok {
		return nil, fmt.Errorf("field %q does not exist", flags.field)
	}
	entry, _ := s.Entry(field)

	var prefix bool
	switch flags.mode {
	case "term":
	case "prefix":
		prefix = true
	case "fuzzy":
		prefix = flags.prefix
	default:
		return nil, fmt.Errorf("unknown mode %q", flags.mode)
	}

	analyze := tokenizer.QueryTerm
	if prefix {
		analyze = tokenizer.QueryPrefix
	}
	analyzed, err := analyze(entry.Options.Analyzer, text)
	if err != nil {
		return nil, fmt.Errorf("analyzing %q for field %q: %w", text, flags.field, err)
	}
	term := schema.NewTerm(field, analyzed)

	switch {
	case flags.mode == "term":
		return query.NewTermQuery(term), nil
	case flags.mode == "prefix":
		return query.NewPrefixQuery(term), nil
	case prefix:
		return query.NewFuzzyPrefixQuery(term, flags.distance, flags.transposition), nil
	default:
		return query.NewFuzzyTermQuery(term, flags.distance, flags.transposition), nil
	}
}

func segmentReaders(readers []*segment.Reader) []index.SegmentReader {
	out := make([]index.SegmentReader, len(readers))
	for i, r := range readers {
		out[i] = r
	}
	return out
}

func printHits(w io.Writer, q query.Query, hits []search.Hit, total uint64, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"query":      q.String(),
			"total_hits": total,
			"hits":       hits,
		})
	}
	fmt.Fprintf(w, "%s: %d hits\n", q, total)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEGMENT\tDOC\tSCORE")
	for _, h := range hits {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\n", h.Segment, h.Doc, h.Score)
	}
	return tw.Flush()
}
