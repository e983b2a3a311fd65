package store

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

// featureJSON renders a feature vector as a JSON object keyed by feature
// column. NaN has no JSON representation, so missing values become nulls
// via pointer fields.
func featureJSON(features []float64) ([]byte, error) {
	if len(features) != len(stats.FeatureColumns) {
		return nil, fmt.Errorf("feature vector has %d values, want %d",
			len(features), len(stats.FeatureColumns))
	}
	obj := make(map[string]*float64, len(features))
	for i, col := range stats.FeatureColumns {
		if math.IsNaN(features[i]) {
			obj[col] = nil
			continue
		}
		v := features[i]
		obj[col] = &v
	}
	return json.Marshal(obj)
}
