package stats

import (
	"math"
	"reflect"
	"testing"

	"github.com/IshaanNene/ReviewGoat/internal/types"
)

func review(stars float64, rec types.Recommendation, pros, cons []string) types.Review {
	return types.Review{
		Stars:          stars,
		Recommendation: rec,
		Pros:           pros,
		Cons:           cons,
	}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)

	if !math.IsNaN(s.AverageStars) || s.HasAverage() {
		t.Errorf("expected NaN average, got %v", s.AverageStars)
	}
	if s.OpinionsCount != 0 || s.ProsCount != 0 || s.ConsCount != 0 || s.ProsConsCount != 0 {
		t.Errorf("expected zero counts, got %+v", s)
	}
	if s.Pros == nil || len(s.Pros) != 0 || s.Cons == nil || len(s.Cons) != 0 {
		t.Errorf("expected empty frequency lists, got %v / %v", s.Pros, s.Cons)
	}
	if s.Recommendations != (types.RecommendationCounts{}) {
		t.Errorf("expected all buckets zero, got %+v", s.Recommendations)
	}
}

func TestAggregateScenario(t *testing.T) {
	reviews := []types.Review{
		review(5, types.Recommends, []string{"bateria", "ekran"}, []string{"cena"}),
		review(4.5, types.Recommends, []string{"bateria"}, []string{}),
		review(1, types.DoesNotRecommend, []string{}, []string{"cena", "aparat"}),
	}

	s := Aggregate(reviews)

	if s.OpinionsCount != 3 || s.ProsCount != 2 || s.ConsCount != 2 || s.ProsConsCount != 1 {
		t.Errorf("unexpected counts %+v", s)
	}
	if math.Abs(s.AverageStars-3.5) > 1e-9 {
		t.Errorf("expected average 3.5, got %v", s.AverageStars)
	}

	wantPros := []types.Frequency{{Value: "bateria", Count: 2}, {Value: "ekran", Count: 1}}
	if !reflect.DeepEqual(s.Pros, wantPros) {
		t.Errorf("pros: expected %v, got %v", wantPros, s.Pros)
	}
	wantCons := []types.Frequency{{Value: "cena", Count: 2}, {Value: "aparat", Count: 1}}
	if !reflect.DeepEqual(s.Cons, wantCons) {
		t.Errorf("cons: expected %v, got %v", wantCons, s.Cons)
	}

	wantRec := types.RecommendationCounts{Recommends: 2, DoesNotRecommend: 1, Unset: 0}
	if s.Recommendations != wantRec {
		t.Errorf("recommendations: expected %+v, got %+v", wantRec, s.Recommendations)
	}
}

func TestRecommendationDistributionSum(t *testing.T) {
	recs := []types.Recommendation{types.Recommends, types.RecommendationUnset, types.DoesNotRecommend, types.RecommendationUnset}
	for n := 0; n <= 12; n++ {
		reviews := make([]types.Review, n)
		for i := range reviews {
			reviews[i] = review(float64(i%6), recs[i%len(recs)], nil, nil)
		}
		if got := Aggregate(reviews).Recommendations.Total(); got != n {
			t.Errorf("n=%d: distribution sums to %d", n, got)
		}
	}
}

func TestFrequenciesTieBreak(t *testing.T) {
	got := Frequencies([]string{"c", "a", "b", "a", "b", "d"})
	want := []types.Frequency{
		{Value: "a", Count: 2},
		{Value: "b", Count: 2},
		{Value: "c", Count: 1},
		{Value: "d", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestStarCounts(t *testing.T) {
	reviews := []types.Review{
		review(5, types.RecommendationUnset, nil, nil),
		review(1, types.RecommendationUnset, nil, nil),
		review(4.5, types.RecommendationUnset, nil, nil),
		review(5, types.RecommendationUnset, nil, nil),
	}
	want := []StarCount{{Stars: 1, Count: 1}, {Stars: 4.5, Count: 1}, {Stars: 5, Count: 2}}
	if got := StarCounts(reviews); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSummarize(t *testing.T) {
	p := Summarize("12345", "Telefon", []types.Review{review(4, types.Recommends, nil, nil)})
	if p.ID != "12345" || p.Name != "Telefon" || p.Stats.OpinionsCount != 1 || p.Stats.AverageStars != 4 {
		t.Errorf("unexpected product %+v", p)
	}
}
