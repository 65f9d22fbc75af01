package types

import (
	"encoding/json"
	"math"
)

// Product is the stored summary of a scraped product.
type Product struct {
	ID    string `json:"product_id"   bson:"_id"`
	Name  string `json:"product_name" bson:"product_name"`
	Stats Stats  `json:"stats"        bson:"stats"`
}

// Frequency is one entry of a pros/cons frequency list.
type Frequency struct {
	Value string `json:"value" bson:"value"`
	Count int    `json:"count" bson:"count"`
}

// RecommendationCounts is the distribution over the three recommendation
// states. All three are always present.
type RecommendationCounts struct {
	Recommends       int `json:"recommends"         bson:"recommends"`
	DoesNotRecommend int `json:"does_not_recommend" bson:"does_not_recommend"`
	Unset            int `json:"unset"              bson:"unset"`
}

// Total returns the sum over all three states.
func (c RecommendationCounts) Total() int {
	return c.Recommends + c.DoesNotRecommend + c.Unset
}

// Add increments the bucket for r.
func (c *RecommendationCounts) Add(r Recommendation) {
	switch r {
	case Recommends:
		c.Recommends++
	case DoesNotRecommend:
		c.DoesNotRecommend++
	default:
		c.Unset++
	}
}

// Stats holds aggregate statistics over a product's reviews.
type Stats struct {
	OpinionsCount int `json:"opinions_count"  bson:"opinions_count"`
	ProsCount     int `json:"pros_count"      bson:"pros_count"`
	ConsCount     int `json:"cons_count"      bson:"cons_count"`
	ProsConsCount int `json:"pros_cons_count" bson:"pros_cons_count"`

	// AverageStars is NaN when there are no reviews.
	AverageStars float64 `json:"average_stars" bson:"average_stars"`

	Pros            []Frequency          `json:"pros"            bson:"pros"`
	Cons            []Frequency          `json:"cons"            bson:"cons"`
	Recommendations RecommendationCounts `json:"recommendations" bson:"recommendations"`
}

// HasAverage reports whether AverageStars is defined.
func (s Stats) HasAverage() bool {
	return !math.IsNaN(s.AverageStars)
}

type statsJSON struct {
	OpinionsCount   int                  `json:"opinions_count"`
	ProsCount       int                  `json:"pros_count"`
	ConsCount       int                  `json:"cons_count"`
	ProsConsCount   int                  `json:"pros_cons_count"`
	AverageStars    *float64             `json:"average_stars"`
	Pros            []Frequency          `json:"pros"`
	Cons            []Frequency          `json:"cons"`
	Recommendations RecommendationCounts `json:"recommendations"`
}

// MarshalJSON writes an undefined average as null, since JSON has no NaN.
func (s Stats) MarshalJSON() ([]byte, error) {
	out := statsJSON{
		OpinionsCount:   s.OpinionsCount,
		ProsCount:       s.ProsCount,
		ConsCount:       s.ConsCount,
		ProsConsCount:   s.ProsConsCount,
		Pros:            nonNilFreq(s.Pros),
		Cons:            nonNilFreq(s.Cons),
		Recommendations: s.Recommendations,
	}
	if s.HasAverage() {
		avg := s.AverageStars
		out.AverageStars = &avg
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a null average back as NaN.
func (s *Stats) UnmarshalJSON(data []byte) error {
	var in statsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Stats{
		OpinionsCount:   in.OpinionsCount,
		ProsCount:       in.ProsCount,
		ConsCount:       in.ConsCount,
		ProsConsCount:   in.ProsConsCount,
		AverageStars:    math.NaN(),
		Pros:            nonNilFreq(in.Pros),
		Cons:            nonNilFreq(in.Cons),
		Recommendations: in.Recommendations,
	}
	if in.AverageStars != nil {
		s.AverageStars = *in.AverageStars
	}
	return nil
}

func nonNilFreq(f []Frequency) []Frequency {
	if f == nil {
		return []Frequency{}
	}
	return f
}
