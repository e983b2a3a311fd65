package model

import (
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

const (
	gradientIters = 2000
	learningRate  = 0.1
)

// Model is a fitted baseline classifier: median imputation and
// standardization parameters from the training split plus logistic
// regression weights. Predicting the home team to win means
// P(score_diff > 0) > 0.5.
type Model struct {
	Columns []string
	Median  []float64
	Mean    []float64
	Std     []float64
	Weights []float64
	Bias    float64
}

// Metrics summarizes held-out evaluation.
type Metrics struct {
	Accuracy  float64
	ROCAUC    float64
	NTrain    int
	NTest     int
	NFeatures int
}

// Train fits the baseline on the engineered feature diffs. The split is a
// deterministic shuffle under seed; imputation and scaling are fit on the
// training split only.
func Train(examples []stats.TrainingExample, testFrac float64, seed int64, log *logrus.Logger) (*Model, Metrics, error) {
	trainLog := log.WithField("component", "model")

	n := len(examples)
	d := len(stats.FeatureColumns)
	if n < 10 {
		return nil, Metrics{}, fmt.Errorf("need at least 10 training examples, have %d", n)
	}
	if testFrac <= 0 || testFrac >= 1 {
		return nil, Metrics{}, fmt.Errorf("test fraction must be in (0, 1), got %g", testFrac)
	}

	X := make([][]float64, n)
	y := make([]float64, n)
	for i, ex := range examples {
		if len(ex.Features) != d {
			return nil, Metrics{}, fmt.Errorf("example %d has %d features, want %d", i, len(ex.Features), d)
		}
		X[i] = ex.Features
		if ex.ScoreDiff > 0 {
			y[i] = 1
		}
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Round(float64(n) * testFrac))
	if nTest < 1 {
		nTest = 1
	}
	testIdx, trainIdx := perm[:nTest], perm[nTest:]

	m := &Model{
		Columns: append([]string(nil), stats.FeatureColumns...),
		Median:  columnMedians(X, trainIdx, d),
	}
	m.Mean, m.Std = columnMoments(X, trainIdx, d, m.Median)

	Xtrain := m.designMatrix(X, trainIdx)
	ytrain := subset(y, trainIdx)
	m.fit(Xtrain, ytrain)

	probs := m.predictMatrix(m.designMatrix(X, testIdx))
	ytest := subset(y, testIdx)

	correct := 0
	for i, p := range probs {
		if (p > 0.5) == (ytest[i] == 1) {
			correct++
		}
	}

	metrics := Metrics{
		Accuracy:  float64(correct) / float64(len(ytest)),
		ROCAUC:    rocAUC(probs, ytest),
		NTrain:    len(trainIdx),
		NTest:     len(testIdx),
		NFeatures: d,
	}

	trainLog.WithFields(logrus.Fields{
		"accuracy": metrics.Accuracy, "roc_auc": metrics.ROCAUC,
		"n_train": metrics.NTrain, "n_test": metrics.NTest,
	}).Info("trained baseline classifier")

	return m, metrics, nil
}

// Predict returns P(home win) for one raw feature vector.
func (m *Model) Predict(features []float64) float64 {
	z := m.Bias
	for j, v := range features {
		if stats.IsMissing(v) {
			v = m.Median[j]
		}
		z += m.Weights[j] * (v - m.Mean[j]) / m.Std[j]
	}
	return sigmoid(z)
}

// Save writes the fitted model to path.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(m); err != nil {
		f.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	return f.Close()
}

// Load reads a fitted model from path.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var m Model
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &m, nil
}

// designMatrix imputes and standardizes the selected rows.
func (m *Model) designMatrix(X [][]float64, idx []int) *mat.Dense {
	d := len(m.Median)
	out := mat.NewDense(len(idx), d, nil)
	for i, row := range idx {
		for j := 0; j < d; j++ {
			v := X[row][j]
			if stats.IsMissing(v) {
				v = m.Median[j]
			}
			out.Set(i, j, (v-m.Mean[j])/m.Std[j])
		}
	}
	return out
}

// fit runs full-batch gradient descent on the log-loss.
func (m *Model) fit(X *mat.Dense, y []float64) {
	n, d := X.Dims()
	m.Weights = make([]float64, d)
	m.Bias = 0

	grad := make([]float64, d)
	for iter := 0; iter < gradientIters; iter++ {
		var z mat.VecDense
		z.MulVec(X, mat.NewVecDense(d, m.Weights))

		for j := range grad {
			grad[j] = 0
		}
		var biasGrad float64
		for i := 0; i < n; i++ {
			residual := sigmoid(z.AtVec(i)+m.Bias) - y[i]
			biasGrad += residual
			for j := 0; j < d; j++ {
				grad[j] += residual * X.At(i, j)
			}
		}

		scale := learningRate / float64(n)
		m.Bias -= scale * biasGrad
		for j := 0; j < d; j++ {
			m.Weights[j] -= scale * grad[j]
		}
	}
}

func (m *Model) predictMatrix(X *mat.Dense) []float64 {
	n, d := X.Dims()
	var z mat.VecDense
	z.MulVec(X, mat.NewVecDense(d, m.Weights))

	probs := make([]float64, n)
	for i := range probs {
		probs[i] = sigmoid(z.AtVec(i) + m.Bias)
	}
	return probs
}

// rocAUC integrates the ROC curve over held-out scores.
func rocAUC(scores, labels []float64) float64 {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })

	sorted := make([]float64, len(scores))
	classes := make([]bool, len(scores))
	for i, idx := range order {
		sorted[i] = scores[idx]
		classes[i] = labels[idx] == 1
	}

	tpr, fpr, _ := stat.ROC(nil, sorted, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// columnMedians computes per-column medians over the non-missing training
// values; an all-missing column imputes to zero.
func columnMedians(X [][]float64, idx []int, d int) []float64 {
	medians := make([]float64, d)
	for j := 0; j < d; j++ {
		var vals []float64
		for _, i := range idx {
			if !stats.IsMissing(X[i][j]) {
				vals = append(vals, X[i][j])
			}
		}
		if len(vals) == 0 {
			continue
		}
		sort.Float64s(vals)
		medians[j] = stat.Quantile(0.5, stat.Empirical, vals, nil)
	}
	return medians
}

// columnMoments computes per-column mean and stddev after imputation; a
// constant column gets unit scale so standardization is a no-op.
func columnMoments(X [][]float64, idx []int, d int, median []float64) (means, stds []float64) {
	means = make([]float64, d)
	stds = make([]float64, d)
	col := make([]float64, len(idx))
	for j := 0; j < d; j++ {
		for i, row := range idx {
			v := X[row][j]
			if stats.IsMissing(v) {
				v = median[j]
			}
			col[i] = v
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		means[j] = mean
		stds[j] = std
	}
	return means, stds
}

func subset(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
