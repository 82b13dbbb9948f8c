package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/farxc/imoveis_dashboard/internal/dashboard"
	"github.com/farxc/imoveis_dashboard/internal/imoveis"
	"github.com/farxc/imoveis_dashboard/internal/logger"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// ExportResult describes one exported snapshot.
type ExportResult struct {
	Source     string
	OutputPath string
	Summary    dashboard.Summary
}

type exporter struct {
	loader *imoveis.Loader
	filter dashboard.Filter
	locale dashboard.Locale
	outDir string
	logger *logger.Logger
}

// outputStem derives a file stem from the snapshot's base name.
func outputStem(source string) string {
	var base string
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Host != "" {
		base = path.Base(u.Path)
	} else {
		base = filepath.Base(source)
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// outputNames gives every source its own CSV file name in one directory.
// Sources sharing a base name (2023/imoveis.parquet, 2024/imoveis.parquet)
// are numbered in the order given.
func outputNames(sources []string) []string {
	stems := make([]string, len(sources))
	counts := make(map[string]int, len(sources))
	for i, source := range sources {
		stems[i] = outputStem(source)
		counts[stems[i]]++
	}

	names := make([]string, len(sources))
	used := make(map[string]bool, len(sources))
	seen := make(map[string]int, len(sources))
	for i, stem := range stems {
		candidate := stem
		if counts[stem] > 1 {
			seen[stem]++
			candidate = fmt.Sprintf("%s_%d", stem, seen[stem])
		}
		for used[fileName(candidate)] {
			seen[stem]++
			candidate = fmt.Sprintf("%s_%d", stem, seen[stem])
		}
		used[fileName(candidate)] = true
		names[i] = fileName(candidate)
	}
	return names
}

func fileName(stem string) string {
	if stem == "" {
		return dashboard.ExportFilename
	}
	return stem + "_" + dashboard.ExportFilename
}

func (e *exporter) export(ctx context.Context, source, name string) (ExportResult, error) {
	const component = "Exporter"

	table, err := e.loader.Load(ctx, source)
	if err != nil {
		return ExportResult{Source: source}, err
	}

	filtered := e.filter.Apply(table)
	result := ExportResult{
		Source:     source,
		OutputPath: filepath.Join(e.outDir, name),
		Summary:    dashboard.Summarize(filtered),
	}

	f, err := os.Create(result.OutputPath)
	if err != nil {
		return result, eris.Wrapf(err, "failed to create %s", result.OutputPath)
	}
	defer f.Close()

	if err := dashboard.WriteCSV(f, filtered, e.locale); err != nil {
		return result, err
	}
	if err := f.Close(); err != nil {
		return result, eris.Wrapf(err, "failed to close %s", result.OutputPath)
	}

	e.logger.Info(component, "Export written: source=%s rows=%d/%d output=%s", source, filtered.Nrow(), table.Nrow(), result.OutputPath)
	return result, nil
}

// exportAll exports every source with at most concurrency loads at once.
// A failed source is logged and skipped; the error reports how many failed.
func (e *exporter) exportAll(ctx context.Context, sources []string, concurrency int) ([]ExportResult, error) {
	const component = "Exporter"

	if err := os.MkdirAll(e.outDir, os.ModePerm); err != nil {
		return nil, eris.Wrapf(err, "failed to create output directory %s", e.outDir)
	}

	names := outputNames(sources)
	results := make([]ExportResult, len(sources))
	ok := make([]bool, len(sources))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, source := range sources {
		g.Go(func() error {
			res, err := e.export(gctx, source, names[i])
			if err != nil {
				failed.Add(1)
				e.logger.Error(component, "Export failed: source=%s error=%v", source, err)
				return nil
			}
			results[i], ok[i] = res, true
			return nil
		})
	}
	_ = g.Wait()

	out := make([]ExportResult, 0, len(sources))
	for i := range results {
		if ok[i] {
			out = append(out, results[i])
		}
	}

	if n := failed.Load(); n > 0 {
		return out, eris.Errorf("%d of %d exports failed", n, len(sources))
	}
	return out, nil
}

func printSummary(w io.Writer, r ExportResult) {
	d := r.Summary.Display
	fmt.Fprintf(w, "%s\n", r.Source)
	fmt.Fprintf(w, "  Imóveis:                      %s\n", d.Imoveis)
	fmt.Fprintf(w, "  Valor total dos lotes:        R$ %s\n", d.ValorTotalLote)
	fmt.Fprintf(w, "  Taxa PSEI ajustado:           R$ %s\n", d.TaxaPseiAjustado)
	fmt.Fprintf(w, "  Taxa PSEI parc. corrigido:    R$ %s\n", d.TaxaPseiParcelamentoCorrigido)
	fmt.Fprintf(w, "  Diferença:                    R$ %s\n", d.Diferenca)
	fmt.Fprintf(w, "  IPTU calculado:               R$ %s\n", d.IPTUTotal)
	fmt.Fprintf(w, "  Arquivo:                      %s\n", r.OutputPath)
}
