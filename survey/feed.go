package survey

import (
	"sort"

	"github.com/mbolis/national-dialog/model"
)

const FeedSize = 20

// RenderFeed returns the last FeedSize entries, most recent first. Recency is
// append order, not timestamp.
func RenderFeed(entries []model.BlogEntry) []model.BlogEntry {
	start := len(entries) - FeedSize
	if start < 0 {
		start = 0
	}
	tail := entries[start:]

	feed := make([]model.BlogEntry, len(tail))
	for i, e := range tail {
		feed[len(tail)-1-i] = e
	}
	return feed
}

type PollCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type PollTally struct {
	Counts []PollCount
}

// Empty reports the no-data state, distinct from a tally with zero rows.
func (t PollTally) Empty() bool {
	return len(t.Counts) == 0
}

// AggregatePoll counts equal samples, highest count first. Equal counts keep
// the order in which each value was first seen.
func AggregatePoll(samples []string) PollTally {
	index := map[string]int{}
	counts := []PollCount{}
	for _, v := range samples {
		i, ok := index[v]
		if !ok {
			i = len(counts)
			index[v] = i
			counts = append(counts, PollCount{Value: v})
		}
		counts[i].Count++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return PollTally{Counts: counts}
}
