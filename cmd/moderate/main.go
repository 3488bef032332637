// Command moderate runs the grade moderation pipeline against a gradebook
// file and writes the augmented export, printing the migration report to
// stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"gradecli/internal/dataprocessing"
	"gradecli/internal/exporter"
	"gradecli/internal/moderation"
)

func main() {
	input := flag.String("in", "", "input gradebook file (.csv or .xlsx)")
	column := flag.String("column", "", "scored column to moderate (auto-detected when empty)")
	maxPoints := flag.Float64("max", 0, "maximum possible points for the column (auto-resolved when 0)")
	targetMean := flag.Float64("mean", 65, "target mean percentage")
	targetStd := flag.Float64("std", 12, "target standard deviation")
	policy := flag.String("policy", "none", "adjustment policy: none, cusp_avoidance, soft_fail, gentle_boost")
	softFailThreshold := flag.Float64("soft-fail-threshold", 47, "soft fail threshold in [45,50)")
	gentleBoostDelta := flag.Float64("gentle-boost-delta", 2, "gentle boost mean delta")
	cuspRule := flag.String("cusp-rule", "exact", "cusp detection rule: exact or range")
	output := flag.String("out", "", "output file (defaults to <input>_moderated.csv)")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: moderate -in gradebook.csv [-column NAME] [-max N] [-mean N] [-std N] [-policy NAME]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if err := run(*input, *output, *column, *maxPoints, moderateOptions{
		targetMean:        *targetMean,
		targetStd:         *targetStd,
		policy:            *policy,
		softFailThreshold: *softFailThreshold,
		gentleBoostDelta:  *gentleBoostDelta,
		cuspRule:          *cuspRule,
	}, logger); err != nil {
		slog.Error("Moderation failed", "error", err)
		os.Exit(1)
	}
}

type moderateOptions struct {
	targetMean        float64
	targetStd         float64
	policy            string
	softFailThreshold float64
	gentleBoostDelta  float64
	cuspRule          string
}

func run(input, output, column string, maxPoints float64, opts moderateOptions, logger *slog.Logger) error {
	ctx := context.Background()

	file, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer file.Close()

	table, err := dataprocessing.ParseTable(file, input)
	if err != nil {
		return err
	}

	clean, err := dataprocessing.NewCleaner(logger).Clean(table)
	if err != nil {
		return err
	}

	col, err := dataprocessing.ResolveColumn(clean, column)
	if err != nil {
		return err
	}

	var override *float64
	if maxPoints > 0 {
		override = &maxPoints
	}
	resolution := dataprocessing.ResolveMax(clean, col, override)

	req := moderation.Request{
		Column:    col,
		MaxPoints: resolution.MaxPoints,
		Params: moderation.CurveParameters{
			TargetMean: opts.targetMean,
			TargetStd:  opts.targetStd,
		},
		Policy: moderation.AdjustmentPolicy{
			Kind:              moderation.PolicyKind(opts.policy),
			SoftFailThreshold: opts.softFailThreshold,
			GentleBoostDelta:  opts.gentleBoostDelta,
		},
		CuspRule: moderation.CuspRule(opts.cuspRule),
	}

	result, err := moderation.NewPipeline(logger).Run(ctx, clean, req)
	if err != nil {
		return err
	}

	printReport(os.Stdout, result, resolution)

	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		output = base + "_moderated.csv"
	}

	augmented := exporter.Augment(clean, result)
	if strings.EqualFold(filepath.Ext(output), ".xlsx") {
		out, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer out.Close()
		if err := exporter.NewXLSXWriter(logger).WriteTable(out, augmented); err != nil {
			return err
		}
	} else {
		if err := exporter.NewCSVWriter(logger).WriteTableFile(output, augmented); err != nil {
			return err
		}
	}

	fmt.Printf("\nWrote %s\n", output)
	return nil
}

// printReport renders the migration report as plain text tables
func printReport(w *os.File, result *moderation.Result, resolution dataprocessing.Resolution) {
	s := result.Report.Summary

	fmt.Fprintf(w, "Column:      %s (max %.4g, %s)\n", result.Column, result.MaxPoints, resolution.Source)
	fmt.Fprintf(w, "Students:    %d\n", s.Count)
	fmt.Fprintf(w, "Mean:        %.2f -> %.2f (target %.2f)\n", s.MeanOriginal, s.MeanAdjusted, result.RequestedParams.TargetMean)
	fmt.Fprintf(w, "Std:         %.2f -> %.2f (target %.2f)\n", s.StdOriginal, s.StdAdjusted, result.RequestedParams.TargetStd)
	if result.Policy.Kind != moderation.PolicyNone {
		fmt.Fprintf(w, "Policy:      %s\n", result.Policy.Kind)
	}

	fmt.Fprintln(w, "\nGrade migration:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BAND\tBEFORE\tAFTER\tDELTA")
	for _, b := range result.Report.Bands {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%+d\n", b.Band, b.Before, b.After, b.Delta)
	}
	tw.Flush()

	if len(result.Report.CuspReview) > 0 {
		fmt.Fprintln(w, "\nCusp scores after moderation (review):")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STUDENT\tADJUSTED %\tGRADE")
		for _, r := range result.Report.CuspReview {
			fmt.Fprintf(tw, "%s\t%.1f\t%s\n", r.Student, r.PctAdjusted, r.CategoryAdjusted)
		}
		tw.Flush()
	}
}
