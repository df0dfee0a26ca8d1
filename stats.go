package solr

import (
	"encoding/json"
)

type StatsComponent struct {
	Fields []string `json:"fields" yaml:"fields"`
}

func NewStatsComponent(fields ...string) StatsComponent {
	return StatsComponent{Fields: fields}
}

func (c StatsComponent) appendParams(p map[string]interface{}) {
	p["stats"] = true
	if len(c.Fields) > 0 {
		p["stats.field"] = c.Fields
	}
}

type StatsResponse struct {
	StatsFields map[string]*FieldStats `json:"stats_fields"`
}

// FieldStats keeps min, max, sum and mean raw since their type follows the
// field (number, date or string).
type FieldStats struct {
	Min          json.RawMessage `json:"min,omitempty"`
	Max          json.RawMessage `json:"max,omitempty"`
	Sum          json.RawMessage `json:"sum,omitempty"`
	Mean         json.RawMessage `json:"mean,omitempty"`
	Count        int64           `json:"count"`
	Missing      int64           `json:"missing"`
	SumOfSquares *float64        `json:"sumOfSquares,omitempty"`
	Stddev       *float64        `json:"stddev,omitempty"`
}

func (s *StatsResponse) Field(name string) (*FieldStats, bool) {
	if s == nil {
		return nil, false
	}
	f, ok := s.StatsFields[name]
	return f, ok && f != nil
}

func (f *FieldStats) GetMin(v interface{}) error {
	return decodeRaw("stats.min", f.Min, v)
}

func (f *FieldStats) GetMax(v interface{}) error {
	return decodeRaw("stats.max", f.Max, v)
}

func (f *FieldStats) GetSum(v interface{}) error {
	return decodeRaw("stats.sum", f.Sum, v)
}

func (f *FieldStats) GetMean(v interface{}) error {
	return decodeRaw("stats.mean", f.Mean, v)
}
