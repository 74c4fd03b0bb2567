package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

const topSources = 20

type count struct {
	Key   string
	Count int
}

// sortedCounts orders counts by descending count, then key.
func sortedCounts(m map[string]int) []count {
	out := make([]count, 0, len(m))
	for k, v := range m {
		out = append(out, count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// errorReasons tallies the reasons of error statuses.
func errorReasons(results []types.Extraction) map[string]int {
	reasons := make(map[string]int)
	for _, ex := range results {
		if ex.Result.Status.IsError() {
			reasons[ex.Result.Status.Reason()]++
		}
	}
	return reasons
}

func printStatusSummary(w io.Writer, results []types.Extraction, stats *engine.Stats) {
	fmt.Fprintf(w, "   URLs:      %d total\n", len(results))
	fmt.Fprintf(w, "   Status:    %d success, %d timeout, %d error\n",
		stats.Succeeded.Load(), stats.TimedOut.Load(), stats.Failed.Load())
	fmt.Fprintf(w, "   Success:   %.1f%%\n", stats.SuccessRate())
	fmt.Fprintf(w, "   Peak:      %d concurrent fetches\n", stats.PeakInFlight.Load())

	reasons := sortedCounts(errorReasons(results))
	if len(reasons) > 0 {
		fmt.Fprintf(w, "\n   Errors:\n")
		for _, r := range reasons {
			fmt.Fprintf(w, "     %4d  %s\n", r.Count, r.Key)
		}
	}
}

func printNewsSummary(w io.Writer, articles []*types.Article, terms []string) {
	perTerm := make(map[string]int, len(terms))
	perSource := make(map[string]int)
	for _, a := range articles {
		perTerm[a.SearchTerm]++
		if a.Publisher != "" {
			perSource[a.Publisher]++
		}
	}

	fmt.Fprintf(w, "\n   Articles per term:\n")
	for _, t := range terms {
		fmt.Fprintf(w, "     %4d  %s\n", perTerm[t], t)
	}

	sources := sortedCounts(perSource)
	if len(sources) > topSources {
		sources = sources[:topSources]
	}
	if len(sources) > 0 {
		fmt.Fprintf(w, "\n   Top sources:\n")
		for _, s := range sources {
			fmt.Fprintf(w, "     %4d  %s\n", s.Count, s.Key)
		}
	}
}
