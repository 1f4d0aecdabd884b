package ml

import (
	"encoding/json"
	"errors"
	"math"
	"os"
)

// RegressionTree is a CART-style regression tree stored as a flat node slice.
type RegressionTree struct {
	nodes    []regressionNode
	maxDepth int
}

type regressionNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// NewRegressionTree creates an untrained tree with the given depth limit.
func NewRegressionTree(maxDepth int) *RegressionTree {
	if maxDepth <= 0 {
		maxDepth = 6
	}
	return &RegressionTree{maxDepth: maxDepth}
}

func (rt *RegressionTree) Train(features [][]float64, targets []float64) error {
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("features or targets empty")
	}
	if len(features) != len(targets) {
		return errors.New("features and targets size mismatch")
	}
	if rt.maxDepth <= 0 {
		rt.maxDepth = 6
	}

	rt.nodes = rt.buildNode(features, targets, 0)
	return nil
}

func (rt *RegressionTree) Predict(vector []float64) (float64, error) {
	if len(rt.nodes) == 0 {
		return 0, errors.New("model not trained")
	}
	idx := 0
	for {
		node := rt.nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(vector) {
			return 0, errors.New("feature index out of range")
		}
		if vector[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(rt.nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func (rt *RegressionTree) Save(path string) error {
	if len(rt.nodes) == 0 {
		return errors.New("model not trained")
	}
	payload, err := json.Marshal(rt.nodes)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (rt *RegressionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var nodes []regressionNode
	if err := json.Unmarshal(payload, &nodes); err != nil {
		return err
	}
	if len(nodes) == 0 {
		return errors.New("model file holds no nodes")
	}
	rt.nodes = nodes
	return nil
}

func (rt *RegressionTree) buildNode(features [][]float64, targets []float64, depth int) []regressionNode {
	leaf := regressionNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Value:      meanTarget(targets),
		IsLeaf:     true,
	}
	if depth >= rt.maxDepth || len(targets) < 2 || isConstant(targets) {
		return []regressionNode{leaf}
	}

	bestFeature, threshold, ok := findBestRegressionSplit(features, targets)
	if !ok {
		return []regressionNode{leaf}
	}

	leftFeatures, leftTargets, rightFeatures, rightTargets := splitSamples(features, targets, bestFeature, threshold)
	if len(leftTargets) == 0 || len(rightTargets) == 0 {
		return []regressionNode{leaf}
	}

	leftNodes := rt.buildNode(leftFeatures, leftTargets, depth+1)
	rightNodes := rt.buildNode(rightFeatures, rightTargets, depth+1)

	// subtree child indices are local; shift them to their final positions
	offsetChildren(leftNodes, 1)
	offsetChildren(rightNodes, 1+len(leftNodes))

	root := regressionNode{
		FeatureIdx: bestFeature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
		Value:      leaf.Value,
		IsLeaf:     false,
	}

	nodes := make([]regressionNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	nodes = append(nodes, leftNodes...)
	nodes = append(nodes, rightNodes...)
	return nodes
}

func offsetChildren(nodes []regressionNode, offset int) {
	for i := range nodes {
		if nodes[i].IsLeaf {
			continue
		}
		nodes[i].LeftChild += offset
		nodes[i].RightChild += offset
	}
}

func findBestRegressionSplit(features [][]float64, targets []float64) (int, float64, bool) {
	featureCount := len(features[0])
	bestFeature := -1
	bestThreshold := 0.0
	bestScore := math.MaxFloat64

	for featureIdx := 0; featureIdx < featureCount; featureIdx++ {
		values := make([]float64, len(features))
		for i := range features {
			values[i] = features[i][featureIdx]
		}
		threshold := median(values)
		leftTargets, rightTargets := partitionTargets(features, targets, featureIdx, threshold)
		if len(leftTargets) == 0 || len(rightTargets) == 0 {
			continue
		}
		score := weightedVariance(leftTargets, rightTargets)
		if score < bestScore {
			bestScore = score
			bestFeature = featureIdx
			bestThreshold = threshold
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func splitSamples(features [][]float64, targets []float64, featureIdx int, threshold float64) ([][]float64, []float64, [][]float64, []float64) {
	leftFeatures := make([][]float64, 0)
	leftTargets := make([]float64, 0)
	rightFeatures := make([][]float64, 0)
	rightTargets := make([]float64, 0)
	for i, row := range features {
		if row[featureIdx] <= threshold {
			leftFeatures = append(leftFeatures, row)
			leftTargets = append(leftTargets, targets[i])
		} else {
			rightFeatures = append(rightFeatures, row)
			rightTargets = append(rightTargets, targets[i])
		}
	}
	return leftFeatures, leftTargets, rightFeatures, rightTargets
}

func partitionTargets(features [][]float64, targets []float64, featureIdx int, threshold float64) ([]float64, []float64) {
	leftTargets := make([]float64, 0)
	rightTargets := make([]float64, 0)
	for i, row := range features {
		if row[featureIdx] <= threshold {
			leftTargets = append(leftTargets, targets[i])
		} else {
			rightTargets = append(rightTargets, targets[i])
		}
	}
	return leftTargets, rightTargets
}

func weightedVariance(leftTargets, rightTargets []float64) float64 {
	leftWeight := float64(len(leftTargets))
	rightWeight := float64(len(rightTargets))
	total := leftWeight + rightWeight
	return (leftWeight/total)*variance(leftTargets) + (rightWeight/total)*variance(rightTargets)
}

func variance(targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	mean := meanTarget(targets)
	sum := 0.0
	for _, t := range targets {
		diff := t - mean
		sum += diff * diff
	}
	return sum / float64(len(targets))
}

func meanTarget(targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range targets {
		sum += t
	}
	return sum / float64(len(targets))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sortFloats(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func sortFloats(values []float64) {
	for i := 1; i < len(values); i++ {
		j := i
		for j > 0 && values[j-1] > values[j] {
			values[j-1], values[j] = values[j], values[j-1]
			j--
		}
	}
}

func isConstant(targets []float64) bool {
	if len(targets) == 0 {
		return true
	}
	first := targets[0]
	for _, t := range targets[1:] {
		if t != first {
			return false
		}
	}
	return true
}
