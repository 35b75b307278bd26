// controllers/results.go
package controllers

import (
	"sort"
	"strings"

	"impressive-vote/models"
)

// ComputeResults folds the ballots into per-category tallies and ranks
// them. Pure function over the ballot slice.
func ComputeResults(votes []models.Vote) models.Results {
	mr := make([]string, 0, len(votes))
	mrs := make([]string, 0, len(votes))
	for _, v := range votes {
		mr = append(mr, strings.TrimSpace(v.MrName))
		mrs = append(mrs, strings.TrimSpace(v.MrsName))
	}
	return models.Results{
		Mr:         tallyCategory(mr),
		Mrs:        tallyCategory(mrs),
		TotalVotes: len(votes),
	}
}

// tallyCategory counts names in ballot order and returns the top 2 by
// count. The fold preserves first-appearance order and the sort is
// stable, so count ties break by whichever candidate was named first.
// Names are matched exactly after trimming; no case folding.
func tallyCategory(names []string) []models.ResultEntry {
	index := make(map[string]int)
	entries := []models.ResultEntry{}
	for _, name := range names {
		if i, ok := index[name]; ok {
			entries[i].Count++
		} else {
			index[name] = len(entries)
			entries = append(entries, models.ResultEntry{Name: name, Count: 1})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > 2 {
		entries = entries[:2]
	}
	return entries
}
