// Package stats computes product summaries from normalized reviews.
// Everything here is pure: no I/O and no shared state.
package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"

	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// StarCount is the number of reviews carrying one star value.
type StarCount struct {
	Stars float64 `json:"stars"`
	Count int     `json:"count"`
}

// Aggregate computes the summary statistics of reviews in a single pass.
// AverageStars is NaN when reviews is empty.
func Aggregate(reviews []types.Review) types.Stats {
	s := types.Stats{
		OpinionsCount: len(reviews),
		AverageStars:  math.NaN(),
	}

	ratings := make(mstats.Float64Data, 0, len(reviews))
	var pros, cons []string

	for _, r := range reviews {
		hasPros, hasCons := r.HasPros(), r.HasCons()
		if hasPros {
			s.ProsCount++
		}
		if hasCons {
			s.ConsCount++
		}
		if hasPros && hasCons {
			s.ProsConsCount++
		}
		pros = append(pros, r.Pros...)
		cons = append(cons, r.Cons...)
		ratings = append(ratings, r.Stars)
		s.Recommendations.Add(r.Recommendation)
	}

	if len(ratings) > 0 {
		if mean, err := mstats.Mean(ratings); err == nil {
			s.AverageStars = mean
		}
	}

	s.Pros = Frequencies(pros)
	s.Cons = Frequencies(cons)
	return s
}

// Frequencies counts each distinct value, most frequent first. Values with
// equal counts keep the order in which they were first seen.
func Frequencies(values []string) []types.Frequency {
	out := make([]types.Frequency, 0)
	index := make(map[string]int)
	for _, v := range values {
		if i, ok := index[v]; ok {
			out[i].Count++
			continue
		}
		index[v] = len(out)
		out = append(out, types.Frequency{Value: v, Count: 1})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// StarCounts returns the number of reviews per distinct star value,
// ascending by star value.
func StarCounts(reviews []types.Review) []StarCount {
	counts := make(map[float64]int)
	for _, r := range reviews {
		counts[r.Stars]++
	}

	out := make([]StarCount, 0, len(counts))
	for stars, n := range counts {
		out = append(out, StarCount{Stars: stars, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Stars < out[j].Stars
	})
	return out
}

// Summarize builds the stored summary of a product from its reviews.
func Summarize(productID, name string, reviews []types.Review) *types.Product {
	return &types.Product{
		ID:    productID,
		Name:  name,
		Stats: Aggregate(reviews),
	}
}
