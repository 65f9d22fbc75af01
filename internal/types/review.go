package types

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxStars is the upper bound of a normalized star rating.
const MaxStars = 5.0

// starsPattern matches a plain decimal numerator after comma replacement.
var starsPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// Recommendation is the reviewer's tri-state verdict.
type Recommendation string

const (
	RecommendationUnset Recommendation = ""
	Recommends          Recommendation = "recommends"
	DoesNotRecommend    Recommendation = "does_not_recommend"
)

// Labels the source site prints next to the author name.
const (
	labelRecommends       = "Polecam"
	labelDoesNotRecommend = "Nie polecam"
)

// ParseRecommendation maps scraped recommendation text onto a Recommendation.
// Unknown labels are treated as unset.
func ParseRecommendation(s string) Recommendation {
	switch strings.TrimSpace(s) {
	case labelRecommends, string(Recommends):
		return Recommends
	case labelDoesNotRecommend, string(DoesNotRecommend):
		return DoesNotRecommend
	default:
		return RecommendationUnset
	}
}

// String returns a display label.
func (r Recommendation) String() string {
	if r == RecommendationUnset {
		return "unset"
	}
	return string(r)
}

// MarshalJSON encodes the unset state as null.
func (r Recommendation) MarshalJSON() ([]byte, error) {
	if r == RecommendationUnset {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

// UnmarshalJSON accepts null, canonical names and source labels.
func (r *Recommendation) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = RecommendationUnset
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("recommendation: %w", err)
	}
	*r = ParseRecommendation(s)
	return nil
}

// MarshalYAML encodes the unset state as null.
func (r Recommendation) MarshalYAML() (any, error) {
	if r == RecommendationUnset {
		return nil, nil
	}
	return string(r), nil
}

// RawReview holds one review block's fields exactly as extracted from HTML.
type RawReview struct {
	ID             string
	Author         string
	Recommendation string
	Stars          string
	Content        string
	Pros           []string
	Cons           []string
	Useful         string
	Unuseful       string
	PostDate       string
	PurchaseDate   string
}

// Review is one normalized customer review.
type Review struct {
	ID             string         `json:"opinion_id"     bson:"opinion_id"     yaml:"opinion_id"`
	Author         string         `json:"author"         bson:"author"         yaml:"author"`
	Recommendation Recommendation `json:"recommendation" bson:"recommendation" yaml:"recommendation"`
	Stars          float64        `json:"stars"          bson:"stars"          yaml:"stars"`
	Content        string         `json:"content"        bson:"content"        yaml:"content"`
	Pros           []string       `json:"pros"           bson:"pros"           yaml:"pros"`
	Cons           []string       `json:"cons"           bson:"cons"           yaml:"cons"`
	Useful         int            `json:"useful"         bson:"useful"         yaml:"useful"`
	Unuseful       int            `json:"unuseful"       bson:"unuseful"       yaml:"unuseful"`
	PostDate       string         `json:"post_date"      bson:"post_date"      yaml:"post_date"`
	PurchaseDate   string         `json:"purchase_date"  bson:"purchase_date"  yaml:"purchase_date"`
}

// HasPros reports whether the review lists at least one advantage.
func (r Review) HasPros() bool { return len(r.Pros) > 0 }

// HasCons reports whether the review lists at least one disadvantage.
func (r Review) HasCons() bool { return len(r.Cons) > 0 }

// Normalize converts a raw review into its typed form. Every field is mapped
// explicitly; the first field that cannot be coerced fails the whole record.
func Normalize(raw RawReview) (Review, error) {
	stars, err := ParseStars(raw.Stars)
	if err != nil {
		return Review{}, &NormalizationError{ReviewID: raw.ID, Field: "stars", Value: raw.Stars, Err: err}
	}
	useful, err := ParseCounter(raw.Useful)
	if err != nil {
		return Review{}, &NormalizationError{ReviewID: raw.ID, Field: "useful", Value: raw.Useful, Err: err}
	}
	unuseful, err := ParseCounter(raw.Unuseful)
	if err != nil {
		return Review{}, &NormalizationError{ReviewID: raw.ID, Field: "unuseful", Value: raw.Unuseful, Err: err}
	}

	return Review{
		ID:             raw.ID,
		Author:         raw.Author,
		Recommendation: ParseRecommendation(raw.Recommendation),
		Stars:          stars,
		Content:        raw.Content,
		Pros:           nonNil(raw.Pros),
		Cons:           nonNil(raw.Cons),
		Useful:         useful,
		Unuseful:       unuseful,
		PostDate:       raw.PostDate,
		PurchaseDate:   raw.PurchaseDate,
	}, nil
}

// ParseStars parses a rating such as "4,5/5", "5/5", "4.5" or "4,5".
// Only the numerator of a fraction is used and a comma decimal separator is
// accepted. The result must lie within [0, MaxStars].
func ParseStars(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingRawValue
	}

	numerator := s
	if i := strings.IndexByte(s, '/'); i >= 0 {
		numerator = strings.TrimSpace(s[:i])
	}
	numerator = strings.ReplaceAll(numerator, ",", ".")
	if !starsPattern.MatchString(numerator) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedRawNumber, s)
	}

	v, err := strconv.ParseFloat(numerator, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedRawNumber, s)
	}
	if v < 0 || v > MaxStars {
		return 0, fmt.Errorf("%w: %g not in [0, %g]", ErrValueOutOfRange, v, MaxStars)
	}
	return v, nil
}

// ParseCounter parses a non-negative vote counter. An empty string is an
// error: the zero default is supplied at extraction time, not here.
func ParseCounter(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingRawValue
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedRawNumber, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrValueOutOfRange, n)
	}
	return n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
