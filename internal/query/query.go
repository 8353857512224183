// Package query defines a small typed query specification assembled by the
// service layer and serialized to the search engine's wire format only at the
// JSON boundary. Engines either marshal it (Elasticsearch) or interpret it
// directly (the in-memory engine).
package query

import (
	"encoding/json"
	"time"
)

// Clause is one atomic query or filter constraint.
type Clause interface {
	clause()
}

// Term is an exact-match constraint on a keyword field.
type Term struct {
	Field string
	Value string
}

func (Term) clause() {}

// MarshalJSON serializes the clause as {"term":{field:value}}.
func (t Term) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"term": map[string]any{t.Field: t.Value},
	})
}

// Range is an inclusive range constraint. Either bound may be nil, in which
// case only the other side constrains. Bounds of type time.Time are
// serialized in RFC 3339 form.
type Range struct {
	Field string
	GTE   any
	LTE   any
}

func (Range) clause() {}

// MarshalJSON serializes the clause as {"range":{field:{"gte":...,"lte":...}}}.
func (r Range) MarshalJSON() ([]byte, error) {
	bounds := make(map[string]any, 2)
	if r.GTE != nil {
		bounds["gte"] = rangeBound(r.GTE)
	}
	if r.LTE != nil {
		bounds["lte"] = rangeBound(r.LTE)
	}
	return json.Marshal(map[string]any{
		"range": map[string]any{r.Field: bounds},
	})
}

func rangeBound(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return v
}

// MultiMatch is a full-text constraint over weighted fields with bounded
// fuzzy matching. Operator "and" requires every query term to match
// somewhere.
type MultiMatch struct {
	Query     string
	Fields    []string
	Fuzziness string
	Operator  string
}

func (MultiMatch) clause() {}

// MarshalJSON serializes the clause as a multi_match query.
func (m MultiMatch) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"query":  m.Query,
		"fields": m.Fields,
	}
	if m.Fuzziness != "" {
		body["fuzziness"] = m.Fuzziness
	}
	if m.Operator != "" {
		body["operator"] = m.Operator
	}
	return json.Marshal(map[string]any{"multi_match": body})
}

// MatchAll matches every document unconditionally.
type MatchAll struct{}

func (MatchAll) clause() {}

// MarshalJSON serializes the clause as {"match_all":{}}.
func (MatchAll) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"match_all": map[string]any{}})
}

// Bool combines scoring clauses (Must) with non-scoring constraints (Filter).
// All clauses are conjunctive.
type Bool struct {
	Must   []Clause
	Filter []Clause
}

func (Bool) clause() {}

// MarshalJSON serializes the clause as a bool query. An empty filter list is
// omitted so generated specifications stay minimal and reproducible.
func (b Bool) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"must": b.Must,
	}
	if len(b.Filter) > 0 {
		body["filter"] = b.Filter
	}
	return json.Marshal(map[string]any{"bool": body})
}

// ScoreField is the engine's relevance score pseudo-field for sorting.
const ScoreField = "_score"

// Sort orders.
const (
	Asc  = "asc"
	Desc = "desc"
)

// Sort is one (field, direction) tiebreak pair.
type Sort struct {
	Field string
	Order string
}

// MarshalJSON serializes the pair as {field:{"order":order}}.
func (s Sort) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		s.Field: map[string]any{"order": s.Order},
	})
}

// Aggregation is one named aggregation in a request.
type Aggregation interface {
	aggregation()
}

// Avg requests the numeric average of a field across all matches.
type Avg struct {
	Field string
}

func (Avg) aggregation() {}

// MarshalJSON serializes the aggregation as {"avg":{"field":...}}.
func (a Avg) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"avg": map[string]any{"field": a.Field},
	})
}

// Terms requests frequency counts grouped by a keyword field, capped at Size
// distinct keys.
type Terms struct {
	Field string
	Size  int
}

func (Terms) aggregation() {}

// MarshalJSON serializes the aggregation as {"terms":{"field":...,"size":...}}.
func (t Terms) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"terms": map[string]any{"field": t.Field, "size": t.Size},
	})
}

// DateHistogram buckets matches by a calendar interval over a date field.
// MinDocCount 0 zero-fills empty buckets. Aggs are computed per bucket.
type DateHistogram struct {
	Field       string
	Interval    string
	MinDocCount int
	Aggs        map[string]Aggregation
}

func (DateHistogram) aggregation() {}

// MarshalJSON serializes the aggregation as a date_histogram with sub-aggregations.
func (d DateHistogram) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"date_histogram": map[string]any{
			"field":             d.Field,
			"calendar_interval": d.Interval,
			"min_doc_count":     d.MinDocCount,
		},
	}
	if len(d.Aggs) > 0 {
		body["aggs"] = d.Aggs
	}
	return json.Marshal(body)
}

// Names of the aggregations this service requests. Engines decode responses
// under the same names.
const (
	AggAvgRating  = "avg_rating"
	AggSentiments = "sentiments"
	AggTrend      = "trend"
)

// HighlightField configures fragment extraction for one field.
type HighlightField struct {
	FragmentSize      int `json:"fragment_size"`
	NumberOfFragments int `json:"number_of_fragments"`
}

// Highlight configures per-field fragment extraction.
type Highlight struct {
	Fields map[string]HighlightField `json:"fields"`
}

// Request is one composed query specification: the query clause, pagination
// window, tiebreak ordering, highlighting, and aggregations.
type Request struct {
	Query          Clause
	From           int
	Size           int
	Sort           []Sort
	Highlight      *Highlight
	Aggs           map[string]Aggregation
	TrackTotalHits bool
}

// MarshalJSON serializes the request into the engine's search body format.
func (r *Request) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"query": r.Query,
		"from":  r.From,
		"size":  r.Size,
	}
	if len(r.Sort) > 0 {
		body["sort"] = r.Sort
	}
	if r.Highlight != nil {
		body["highlight"] = r.Highlight
	}
	if len(r.Aggs) > 0 {
		body["aggs"] = r.Aggs
	}
	if r.TrackTotalHits {
		body["track_total_hits"] = true
	}
	return json.Marshal(body)
}
