package model

import (
	"io"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// separableExamples builds a set where the first feature alone decides the
// outcome, so the baseline must classify it perfectly.
func separableExamples(n int, seed int64) []stats.TrainingExample {
	rng := rand.New(rand.NewSource(seed))
	d := len(stats.FeatureColumns)

	examples := make([]stats.TrainingExample, n)
	for i := range examples {
		features := make([]float64, d)
		sign := 1.0
		if i%2 == 0 {
			sign = -1.0
		}
		features[0] = sign * (1.0 + 0.1*rng.Float64())
		for j := 1; j < d; j++ {
			features[j] = 0.01 * rng.NormFloat64()
		}
		examples[i] = stats.TrainingExample{
			Features:  features,
			ScoreDiff: sign * 5,
			GameIdx:   i,
			Year:      2020,
		}
	}
	return examples
}

func TestTrainSeparableData(t *testing.T) {
	m, metrics, err := Train(separableExamples(200, 1), 0.2, 42, testLogger())
	require.NoError(t, err)

	assert.Equal(t, 1.0, metrics.Accuracy)
	assert.Equal(t, 1.0, metrics.ROCAUC)
	assert.Equal(t, 160, metrics.NTrain)
	assert.Equal(t, 40, metrics.NTest)
	assert.Equal(t, len(stats.FeatureColumns), metrics.NFeatures)

	// The deciding feature carries the dominant weight.
	require.Len(t, m.Weights, len(stats.FeatureColumns))
	for j := 1; j < len(m.Weights); j++ {
		assert.Greater(t, m.Weights[0], m.Weights[j])
	}
}

func TestTrainIsDeterministic(t *testing.T) {
	a, am, err := Train(separableExamples(100, 3), 0.25, 7, testLogger())
	require.NoError(t, err)
	b, bm, err := Train(separableExamples(100, 3), 0.25, 7, testLogger())
	require.NoError(t, err)

	assert.Equal(t, am, bm)
	assert.Equal(t, a.Weights, b.Weights)
	assert.Equal(t, a.Bias, b.Bias)
}

func TestTrainImputesMissingFeatures(t *testing.T) {
	examples := separableExamples(100, 5)
	// Knock holes into a secondary feature; training must still work.
	for i := 0; i < len(examples); i += 3 {
		examples[i].Features[1] = stats.Missing()
	}

	_, metrics, err := Train(examples, 0.2, 11, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1.0, metrics.Accuracy)
}

func TestTrainInputValidation(t *testing.T) {
	examples := separableExamples(100, 1)

	_, _, err := Train(examples[:5], 0.2, 1, testLogger())
	assert.Error(t, err)

	_, _, err = Train(examples, 0, 1, testLogger())
	assert.Error(t, err)

	_, _, err = Train(examples, 1.5, 1, testLogger())
	assert.Error(t, err)

	bad := separableExamples(100, 1)
	bad[10].Features = []float64{1, 2}
	_, _, err = Train(bad, 0.2, 1, testLogger())
	assert.Error(t, err)
}

func TestPredict(t *testing.T) {
	m, _, err := Train(separableExamples(200, 2), 0.2, 9, testLogger())
	require.NoError(t, err)

	up := make([]float64, len(stats.FeatureColumns))
	up[0] = 1.0
	down := make([]float64, len(stats.FeatureColumns))
	down[0] = -1.0

	assert.Greater(t, m.Predict(up), 0.5)
	assert.Less(t, m.Predict(down), 0.5)

	// Missing features impute to the training median, never NaN out.
	holey := make([]float64, len(stats.FeatureColumns))
	holey[0] = 1.0
	holey[3] = stats.Missing()
	p := m.Predict(holey)
	assert.False(t, stats.IsMissing(p))
	assert.Greater(t, p, 0.5)
}

func TestModelSaveLoadRoundTrip(t *testing.T) {
	m, _, err := Train(separableExamples(100, 4), 0.2, 3, testLogger())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "models", "baseline.gob")
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Weights, loaded.Weights)
	assert.Equal(t, m.Bias, loaded.Bias)
	assert.Equal(t, m.Columns, loaded.Columns)

	probe := make([]float64, len(stats.FeatureColumns))
	probe[0] = 1.0
	assert.Equal(t, m.Predict(probe), loaded.Predict(probe))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.gob"))
	assert.Error(t, err)
}
