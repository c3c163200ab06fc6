package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/index"
	"github.com/poiesic/corpus/scheduler"
)

// printBatchResult writes the batch report: per-task outcomes first, then
// pool statistics, then batch-level performance.
func printBatchResult(w io.Writer, result *scheduler.BatchResult) {
	fmt.Fprintf(w, "Batch %s: %d files, %d ok, %d failed (%.1f%% success) in %.2fs\n",
		result.Status, result.TotalFiles, result.Successful, result.Failed,
		result.SuccessRate, result.Duration.Seconds())
	fmt.Fprintf(w, "Documents stored: %d\n", result.DocumentsStored)

	fmt.Fprintln(w, "\nResults:")
	for _, r := range result.Results {
		if r.Success {
			fmt.Fprintf(w, "  ok    %-28s %-5s %-12s %6.2fs  %s\n",
				r.Filename, r.FileType, r.Slot, r.Seconds, r.DocumentID)
		} else {
			fmt.Fprintf(w, "  fail  %-28s %-5s %-12s %s\n",
				r.Filename, r.FileType, r.Slot, r.Error)
		}
	}

	fmt.Fprintln(w, "\nPool statistics:")
	for _, name := range slices.Sorted(maps.Keys(result.PoolStats)) {
		stats := result.PoolStats[name]
		fmt.Fprintf(w, "  %-12s %d tasks, %d ok, %d failed, %.2fs total, %.2fs avg, %.1f%% success\n",
			name, stats.TotalTasks, stats.SuccessfulTasks, stats.FailedTasks,
			stats.TotalSeconds, stats.AverageSeconds, stats.SuccessRate)
	}

	perf := result.Performance
	fmt.Fprintln(w, "\nPerformance:")
	fmt.Fprintf(w, "  Throughput:          %.2f files/sec (%.2fs per file)\n",
		perf.FilesPerSecond, perf.AverageSecondsPerFile)
	fmt.Fprintf(w, "  Parallel efficiency: %.1f%%\n", perf.ParallelEfficiency)

	used := make([]string, 0, len(perf.Utilization))
	for _, name := range slices.Sorted(maps.Keys(perf.Utilization)) {
		if perf.Utilization[name] == 0 {
			continue
		}
		used = append(used, fmt.Sprintf("%s %.1f%%", name, perf.Utilization[name]))
	}
	if len(used) > 0 {
		fmt.Fprintf(w, "  Pool utilization:    %s\n", strings.Join(used, ", "))
	}
}

func printSearchHits(w io.Writer, query string, hits []core.SearchHit) {
	fmt.Fprintf(w, "Found %d hits for %q\n", len(hits), query)
	for i, hit := range hits {
		fmt.Fprintf(w, "%d. [%.3f] %s (chunk %d/%d) %s\n",
			i+1, hit.Score, hit.Filename, hit.ChunkIndex+1, hit.TotalChunks, hit.DocumentID)
		fmt.Fprintf(w, "   %s\n", snippet(hit.Content, 120))
	}
}

func printDocument(w io.Writer, doc *core.Document, meta *core.DocumentMeta) {
	fmt.Fprintf(w, "Document: %s\n", doc.DocumentID)
	fmt.Fprintf(w, "Filename: %s\n", doc.Filename)
	fmt.Fprintf(w, "Type:     %s\n", doc.Type)
	fmt.Fprintf(w, "Source:   %s\n", doc.Source)
	fmt.Fprintf(w, "Chunks:   %d\n", doc.ChunkCount)
	fmt.Fprintf(w, "Uploaded: %s\n", doc.UploadedAt.Format(time.RFC3339))
	if len(doc.Tags) > 0 {
		fmt.Fprintf(w, "Tags:     %s\n", strings.Join(doc.Tags, ", "))
	}
	if meta != nil && meta.Properties != nil {
		fmt.Fprintln(w, "Properties:")
		printProperties(w, meta.Properties)
	}
	fmt.Fprintf(w, "\n%s\n", doc.Content)
}

func printProperties(w io.Writer, props *core.PropertyData) {
	data, err := json.MarshalIndent(props, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "  (unprintable: %v)\n", err)
		return
	}
	fmt.Fprintf(w, "%s\n", data)
}

func printMetas(w io.Writer, metas []core.DocumentMeta) {
	if len(metas) == 0 {
		fmt.Fprintln(w, "No documents indexed")
		return
	}
	fmt.Fprintf(w, "%d documents\n", len(metas))
	for _, m := range metas {
		structured := ""
		if m.HasStructuredData {
			structured = "  structured"
		}
		fmt.Fprintf(w, "  %s  %-28s %-5s %8d B  %s  %s%s\n",
			m.DocumentID, m.Filename, m.Type, m.FileSize,
			m.UploadedAt.Format("2006-01-02 15:04"), m.Source, structured)
	}
}

func printStats(w io.Writer, stats core.IndexStats) {
	fmt.Fprintf(w, "Documents:          %d\n", stats.TotalDocuments)
	fmt.Fprintf(w, "Total size:         %d bytes\n", stats.TotalSizeBytes)
	fmt.Fprintf(w, "With structured:    %d\n", stats.WithStructuredData)
	fmt.Fprintf(w, "Without structured: %d\n", stats.WithoutStructuredData)
	if len(stats.DocumentsByType) > 0 {
		fmt.Fprintln(w, "By type:")
		for _, t := range slices.Sorted(maps.Keys(stats.DocumentsByType)) {
			fmt.Fprintf(w, "  %-5s %d\n", t, stats.DocumentsByType[t])
		}
	}
}

func printBulkDelete(w io.Writer, result *index.BulkDeleteResult) {
	fmt.Fprintln(w, result.Message)
	for _, id := range result.Deleted {
		fmt.Fprintf(w, "  deleted %s\n", id)
	}
	for _, f := range result.Failed {
		fmt.Fprintf(w, "  failed  %s: %s\n", f.DocumentID, f.Reason)
	}
}

// snippet collapses whitespace and truncates to max runes.
func snippet(s string, max int) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	runes := []rune(collapsed)
	if len(runes) <= max {
		return collapsed
	}
	return string(runes[:max]) + "..."
}
