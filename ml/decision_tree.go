package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a fitted tree exported as a flat node array. Node 0 is the
// root; a node with a negative LeftChild is a leaf.
type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeNode mirrors one row of the exported tree arrays. Value holds the class
// counts (classifiers) or the mean target (regressors) of the node.
type TreeNode struct {
	FeatureIdx int       `json:"feature"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left"`
	RightChild int       `json:"right"`
	Value      []float64 `json:"value"`
}

// IsLeaf reports whether the node has no children.
func (n TreeNode) IsLeaf() bool {
	return n.LeftChild < 0
}

// Leaf walks features down the tree and returns the reached leaf.
func (dt *DecisionTree) Leaf(features []float64) (*TreeNode, error) {
	if len(dt.Nodes) == 0 {
		return nil, errors.New("empty tree")
	}
	idx := 0
	for steps := 0; steps <= len(dt.Nodes); steps++ {
		node := &dt.Nodes[idx]
		if node.IsLeaf() {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return nil, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.Nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
	return nil, errors.New("tree contains a cycle")
}

func (dt *DecisionTree) validate(nFeatures, valueWidth int) error {
	if len(dt.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, node := range dt.Nodes {
		if node.IsLeaf() {
			if len(node.Value) != valueWidth {
				return fmt.Errorf("leaf %d: %d values, want %d", i, len(node.Value), valueWidth)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= nFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild >= len(dt.Nodes) || node.RightChild < 0 || node.RightChild >= len(dt.Nodes) {
			return fmt.Errorf("node %d: child out of range", i)
		}
	}
	return nil
}
