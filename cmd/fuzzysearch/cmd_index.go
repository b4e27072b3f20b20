package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/schema"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/segment"
)

type indexOptions struct {
	fields  []string
	maxDocs uint32
}

func newIndexCmd(a *app) *cobra.Command {
	opts := &indexOptions{}
	cmd := &cobra.Command{
		Use:   "index [file.jsonl]",
		Short: "Index JSON-lines documents into new segment files",
		Long: `Each input line is a JSON object whose keys are field names and whose
values are strings or arrays of strings. Reads stdin when no file is given.

Fields are declared with --field name[:analyzer]; analyzers are raw, simple
and english. Without --field, every key of the first document becomes a field
using index.analyzer.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runIndex(cmd, args, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.fields, "field", nil, "field declaration name[:analyzer], repeatable")
	cmd.Flags().Uint32Var(&opts.maxDocs, "max-docs", 1_000_000, "documents per segment")
	return cmd
}

func (a *app) runIndex(cmd *cobra.Command, args []string, opts *indexOptions) error {
	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}

	dir := a.cfg.Index.DataDir
	names, total, err := indexDocuments(in, segment.NewWriter(dir), opts.fields, a.cfg.Index.Analyzer, opts.maxDocs)
	if err != nil {
		return err
	}
	slog.Info("indexing complete", "documents", total, "segments", len(names), "data_dir", dir)
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

// indexDocuments streams documents from r into segments of at most maxDocs
// documents each and returns the written segment names.
func indexDocuments(r io.Reader, w *segment.Writer, declared []string, defaultAnalyzer string, maxDocs uint32) ([]string, int, error) {
	if maxDocs == 0 {
		return nil, 0, fmt.Errorf("max-docs must be positive")
	}

	var (
		s     *schema.Schema
		b     *segment.Builder
		names []string
		total int
	)
	if len(declared) > 0 {
		var err error
		if s, err = parseFields(declared, defaultAnalyzer); err != nil {
			return nil, 0, err
		}
	}

	flush := func() error {
		if b == nil || b.MaxDoc() == 0 {
			return nil
		}
		name, err := w.Write(b)
		if err != nil {
			return err
		}
		names = append(names, name)
		b.Reset()
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return names, total, fmt.Errorf("line %d: %w", line, err)
		}
		if s == nil {
			s = inferSchema(fields, defaultAnalyzer)
		}
		if b == nil {
			var err error
			if b, err = segment.NewBuilder(s); err != nil {
				return names, total, err
			}
		}
		doc, err := toDocument(s, fields)
		if err != nil {
			return names, total, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := b.AddDocument(doc); err != nil {
			return names, total, fmt.Errorf("line %d: %w", line, err)
		}
		total++
		if b.MaxDoc() >= maxDocs {
			if err := flush(); err != nil {
				return names, total, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return names, total, fmt.Errorf("reading input: %w", err)
	}
	if err := flush(); err != nil {
		return names, total, err
	}
	return names, total, nil
}

func parseFields(declared []string, defaultAnalyzer string) (*schema.Schema, error) {
	sb := schema.NewBuilder()
	seen := make(map[string]bool)
	for _, d := range declared {
		name, analyzer, found := strings.Cut(d, ":")
		if !found {
			analyzer = defaultAnalyzer
		}
		if name == "" {
			return nil, fmt.Errorf("invalid field declaration %q", d)
		}
		if seen[name] {
			return nil, fmt.Errorf("field %q declared twice", name)
		}
		seen[name] = true
		sb.AddField(name, schema.FieldOptions{Indexed: true, Analyzer: analyzer, Record: schema.RecordBasic})
	}
	return sb.Build(), nil
}

func inferSchema(fields map[string]any, analyzer string) *schema.Schema {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	sb := schema.NewBuilder()
	for _, name := range names {
		sb.AddField(name, schema.FieldOptions{Indexed: true, Analyzer: analyzer, Record: schema.RecordBasic})
	}
	return sb.Build()
}

func toDocument(s *schema.Schema, fields map[string]any) (*schema.Document, error) {
	doc := schema.NewDocument()
	for name, value := range fields {
		field, ok := s.Field(name)
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			doc.AddText(field, v)
		case []any:
			for _, item := range v {
				text, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("field %q: array items must be strings", name)
				}
				doc.AddText(field, text)
			}
		case nil:
		default:
			return nil, fmt.Errorf("field %q: unsupported value type %T", name, value)
		}
	}
	return doc, nil
}
