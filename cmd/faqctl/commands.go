package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
	"github.com/yanqian/faq-chatbot/internal/infra/embedder"
	"github.com/yanqian/faq-chatbot/internal/infra/faqsource"
	"github.com/yanqian/faq-chatbot/internal/infra/stemmer"
)

// AudienceReport summarizes one audience of a dataset.
type AudienceReport struct {
	Audience   faq.Audience    `json:"audience"`
	Entries    int             `json:"entries"`
	Patterns   int             `json:"patterns"`
	Collisions []faq.Collision `json:"collisions,omitempty"`
	Error      string          `json:"error,omitempty"`
}

func loadDataset(c *cli.Context) (faqsource.Dataset, error) {
	path := c.String("file")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return faqsource.DecodeFile(path, raw)
}

func checkCommand(c *cli.Context) error {
	dataset, err := loadDataset(c)
	if err != nil {
		return err
	}
	reports := buildReports(c.Context, dataset, embedder.NewLocalEmbedder(c.Int("dims")))

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else {
		printReports(c.App.Writer, reports)
	}

	for _, r := range reports {
		if r.Error != "" {
			return cli.Exit("dataset has errors", 2)
		}
	}
	return nil
}

func buildReports(ctx context.Context, dataset faqsource.Dataset, emb faq.Embedder) []AudienceReport {
	reports := make([]AudienceReport, 0, len(faq.Audiences()))
	for _, audience := range faq.Audiences() {
		entries := dataset[audience]
		report := AudienceReport{Audience: audience, Entries: len(entries)}
		if len(entries) == 0 {
			reports = append(reports, report)
			continue
		}
		if err := faq.ValidateEntries(entries); err != nil {
			report.Error = err.Error()
			reports = append(reports, report)
			continue
		}
		idx, err := faq.BuildIndex(ctx, entries, emb)
		if err != nil {
			report.Error = err.Error()
		} else {
			report.Patterns = idx.Len()
			report.Collisions = idx.Collisions()
		}
		reports = append(reports, report)
	}
	return reports
}

func printReports(w io.Writer, reports []AudienceReport) {
	for _, r := range reports {
		status := "ok"
		if r.Error != "" {
			status = "error: " + r.Error
		}
		fmt.Fprintf(w, "%-8s entries=%d patterns=%d %s\n", r.Audience, r.Entries, r.Patterns, status)
		for _, col := range r.Collisions {
			fmt.Fprintf(w, "  pattern %q: %s overrides %s\n", col.Pattern, col.Winner, col.Previous)
		}
	}
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return cli.Exit("a question is required", 1)
	}
	audience := faq.Audience(c.String("audience"))
	if !audience.Valid() {
		return cli.Exit(fmt.Sprintf("unknown audience %q", audience), 1)
	}
	dataset, err := loadDataset(c)
	if err != nil {
		return err
	}

	emb := embedder.NewLocalEmbedder(c.Int("dims"))
	kb, err := faq.NewKnowledgeBase(c.Context, audience, dataset[audience], emb)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	selector := faq.NewSelector(faq.Config{SimilarityThreshold: faq.Threshold(c.Float64("threshold"))}, emb, faq.NewValidator(stemmer.NewPorter2()), nil, logger)
	result, err := selector.Select(c.Context, kb, question)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "outcome: %s\ntag: %s\nscore: %.3f\npattern: %s\nanswer: %s\n",
		result.Outcome, result.Tag, result.Score, result.Pattern, result.Answer)
	return nil
}
