// internal/scoring/trained.go

package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/models"
)

// MinTrainingExamples is the smallest corpus the trainer accepts. Below it
// the closed-form fits are dominated by noise.
const MinTrainingExamples = 10

// Blend weights inside the ensemble. The linear fit generalizes best on the
// small feature space, so it leads.
const (
	linearBlendWeight = 0.4
	knnBlendWeight    = 0.3
	treeBlendWeight   = 0.3
)

const (
	knnNeighbors = 5
	treeMaxDepth = 3
	treeMinLeaf  = 2
)

// LinearModel is an ordinary least-squares fit solved in closed form.
type LinearModel struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

func (m *LinearModel) Predict(features []float64) float64 {
	value := m.Intercept
	for i, c := range m.Coefficients {
		if i < len(features) {
			value += c * features[i]
		}
	}
	return value
}

// KNNModel predicts the distance-weighted mean outcome of the K nearest
// training examples. It memorizes the corpus; that is the model.
type KNNModel struct {
	K        int         `json:"k"`
	Examples [][]float64 `json:"examples"`
	Outcomes []float64   `json:"outcomes"`
}

func (m *KNNModel) Predict(features []float64) float64 {
	type neighbor struct {
		dist    float64
		outcome float64
	}
	neighbors := make([]neighbor, len(m.Examples))
	for i, ex := range m.Examples {
		neighbors[i] = neighbor{dist: euclidean(features, ex), outcome: m.Outcomes[i]}
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].dist < neighbors[j].dist })

	k := m.K
	if k > len(neighbors) {
		k = len(neighbors)
	}
	weightSum := 0.0
	valueSum := 0.0
	for _, n := range neighbors[:k] {
		// An exact feature match dominates but never divides by zero.
		w := 1 / (n.dist + 1e-9)
		weightSum += w
		valueSum += w * n.outcome
	}
	return valueSum / weightSum
}

// TreeNode is one node of a regression tree. Leaves carry the mean outcome of
// their partition.
type TreeNode struct {
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

// TreeModel is a shallow variance-reduction regression tree.
type TreeModel struct {
	Root *TreeNode `json:"root"`
}

func (m *TreeModel) Predict(features []float64) float64 {
	node := m.Root
	for !node.Leaf {
		if features[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// Ensemble is the full trained artifact: three models, their blend weights,
// and the version under which they were trained. It marshals to JSON as-is
// for persistence.
type Ensemble struct {
	Version   string       `json:"version"`
	Linear    *LinearModel `json:"linear"`
	KNN       *KNNModel    `json:"knn"`
	Tree      *TreeModel   `json:"tree"`
	TrainedAt time.Time    `json:"trainedAt"`
	Samples   int          `json:"samples"`
}

// TrainEnsemble fits all three models on the corpus. Training is atomic:
// any fit failure fails the whole run and leaves nothing to swap in.
func TrainEnsemble(version string, examples []models.TrainingExample) (*Ensemble, error) {
	if len(examples) < MinTrainingExamples {
		return nil, errors.NewInsufficientSampleError(len(examples), MinTrainingExamples)
	}

	features := make([][]float64, len(examples))
	outcomes := make([]float64, len(examples))
	for i, ex := range examples {
		features[i] = ex.Features()
		outcomes[i] = ex.Outcome
	}

	linear, err := fitLinear(features, outcomes)
	if err != nil {
		return nil, errors.NewTrainingFailedError(fmt.Sprintf("linear fit: %v", err))
	}

	return &Ensemble{
		Version:   version,
		Linear:    linear,
		KNN:       &KNNModel{K: knnNeighbors, Examples: features, Outcomes: outcomes},
		Tree:      &TreeModel{Root: growTree(features, outcomes, 0)},
		TrainedAt: time.Now().UTC(),
		Samples:   len(examples),
	}, nil
}

// Predict blends the three model outputs and reports per-model values plus a
// confidence derived from how much the models disagree.
func (e *Ensemble) Predict(features []float64) (value float64, perModel map[string]float64, confidence float64) {
	perModel = map[string]float64{
		"linear": clampScore(e.Linear.Predict(features)),
		"knn":    clampScore(e.KNN.Predict(features)),
		"tree":   clampScore(e.Tree.Predict(features)),
	}
	value = linearBlendWeight*perModel["linear"] +
		knnBlendWeight*perModel["knn"] +
		treeBlendWeight*perModel["tree"]
	value = clampScore(value)

	mean := (perModel["linear"] + perModel["knn"] + perModel["tree"]) / 3
	variance := (sq(perModel["linear"]-mean) + sq(perModel["knn"]-mean) + sq(perModel["tree"]-mean)) / 3
	confidence = 1 - variance/1000
	if confidence < 0.1 {
		confidence = 0.1
	}
	return value, perModel, confidence
}

// TrainedModelScorer serves predictions from the currently loaded ensemble.
// Swap replaces the artifact atomically; in-flight scores finish against the
// version they started with.
type TrainedModelScorer struct {
	mu       sync.RWMutex
	ensemble *Ensemble
	keyword  *KeywordScorer
}

func NewTrainedModelScorer() *TrainedModelScorer {
	return &TrainedModelScorer{keyword: NewKeywordScorer()}
}

func (s *TrainedModelScorer) ID() models.ProviderID { return models.ProviderTrainedModel }

func (s *TrainedModelScorer) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ensemble == nil {
		return "untrained"
	}
	return s.ensemble.Version
}

// Swap installs a freshly trained ensemble. Subsequent scores use it and
// report its version, which also rotates the cache keys.
func (s *TrainedModelScorer) Swap(e *Ensemble) {
	s.mu.Lock()
	s.ensemble = e
	s.mu.Unlock()
}

func (s *TrainedModelScorer) Score(ctx context.Context, resume *models.ParsedResume, job *models.JobRequirements) (*models.ComponentScore, error) {
	s.mu.RLock()
	ensemble := s.ensemble
	s.mu.RUnlock()
	if ensemble == nil {
		return nil, errors.NewProviderUnavailableError(string(models.ProviderTrainedModel), errors.NewModelNotTrainedError())
	}

	keywordScore, _, _ := s.keyword.match(resume, job)
	features, coverage := ExtractFeatures(resume, job, keywordScore)
	value, perModel, confidence := ensemble.Predict(features)

	return &models.ComponentScore{
		ProviderID:      models.ProviderTrainedModel,
		ProviderVersion: ensemble.Version,
		Value:           value,
		Coverage:        coverage,
		Detail: map[string]interface{}{
			"modelPredictions": perModel,
			"modelConfidence":  confidence,
			"trainedAt":        ensemble.TrainedAt,
		},
	}, nil
}

// fitLinear solves the normal equations (XᵀX)β = Xᵀy with a small ridge term
// on the diagonal to keep degenerate corpora (constant features) solvable.
func fitLinear(features [][]float64, outcomes []float64) (*LinearModel, error) {
	n := len(features)
	dim := numFeatures + 1 // leading bias column

	xtx := make([][]float64, dim)
	xty := make([]float64, dim)
	for i := range xtx {
		xtx[i] = make([]float64, dim)
	}
	for row := 0; row < n; row++ {
		x := make([]float64, dim)
		x[0] = 1
		copy(x[1:], features[row])
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				xtx[i][j] += x[i] * x[j]
			}
			xty[i] += x[i] * outcomes[row]
		}
	}
	for i := 0; i < dim; i++ {
		xtx[i][i] += 1e-6
	}

	beta, err := solveLinearSystem(xtx, xty)
	if err != nil {
		return nil, err
	}
	return &LinearModel{Intercept: beta[0], Coefficients: beta[1:]}, nil
}

// solveLinearSystem is Gaussian elimination with partial pivoting.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	solution := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for col := row + 1; col < n; col++ {
			sum -= a[row][col] * solution[col]
		}
		solution[row] = sum / a[row][row]
	}
	return solution, nil
}

// growTree recursively picks the split that most reduces outcome variance.
// Candidate thresholds are midpoints between adjacent distinct feature values,
// so the tree is fully determined by the corpus.
func growTree(features [][]float64, outcomes []float64, depth int) *TreeNode {
	if depth >= treeMaxDepth || len(outcomes) < 2*treeMinLeaf {
		return &TreeNode{Leaf: true, Value: mean(outcomes)}
	}

	baseVar := variance(outcomes)
	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	for f := 0; f < numFeatures; f++ {
		values := make([]float64, len(features))
		for i, row := range features {
			values[i] = row[f]
		}
		sort.Float64s(values)
		for i := 1; i < len(values); i++ {
			if values[i] == values[i-1] {
				continue
			}
			threshold := (values[i] + values[i-1]) / 2
			var left, right []float64
			for j, row := range features {
				if row[f] <= threshold {
					left = append(left, outcomes[j])
				} else {
					right = append(right, outcomes[j])
				}
			}
			if len(left) < treeMinLeaf || len(right) < treeMinLeaf {
				continue
			}
			n := float64(len(outcomes))
			weighted := float64(len(left))/n*variance(left) + float64(len(right))/n*variance(right)
			gain := baseVar - weighted
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}

	if bestFeature < 0 {
		return &TreeNode{Leaf: true, Value: mean(outcomes)}
	}

	var leftFeatures, rightFeatures [][]float64
	var leftOutcomes, rightOutcomes []float64
	for i, row := range features {
		if row[bestFeature] <= bestThreshold {
			leftFeatures = append(leftFeatures, row)
			leftOutcomes = append(leftOutcomes, outcomes[i])
		} else {
			rightFeatures = append(rightFeatures, row)
			rightOutcomes = append(rightOutcomes, outcomes[i])
		}
	}

	return &TreeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      growTree(leftFeatures, leftOutcomes, depth+1),
		Right:     growTree(rightFeatures, rightOutcomes, depth+1),
	}
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		if i < len(b) {
			sum += sq(a[i] - b[i])
		}
	}
	return math.Sqrt(sum)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += sq(v - m)
	}
	return sum / float64(len(values))
}

func sq(x float64) float64 { return x * x }

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
