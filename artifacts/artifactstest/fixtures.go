// Package artifactstest writes small but valid model artifacts for tests.
package artifactstest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"mlportfolio/artifacts"
	"mlportfolio/feature"
	"mlportfolio/ml"
)

// StudentTopFeatures is the key feature list written for the student form.
var StudentTopFeatures = []string{
	"Curricular units 2nd sem (approved)",
	"Tuition fees up to date",
	"Age at enrollment",
}

// WriteFixtures writes one artifact of each kind into dir and returns the
// matching config.
//
// Student: two stumps on "Curricular units 2nd sem (approved)" (<=3) and
// "Tuition fees up to date" (<=0.5); the defaults predict Graduate, fees not
// up to date flips the prediction to Dropout.
// Cancer: stumps on incidencerate (<=500) and povertypercent (<=20); the
// defaults predict 175.5.
// Ship: identity-like scaler centred on the defaults and three centroids;
// the defaults land in cluster 1, a critical HFO tanker in cluster 0.
// The student form gets StudentTopFeatures as its key indicators.
func WriteFixtures(t testing.TB, dir string) artifacts.Config {
	t.Helper()

	student := feature.Student.Names()
	cancer := feature.Cancer.Names()

	cfg := artifacts.Config{
		StudentModel: filepath.Join(dir, "student_rf_model.json"),
		CancerModel:  filepath.Join(dir, "cancer_rf_model.json"),
		ShipModel:    filepath.Join(dir, "kmeans_model.json"),
		ShipScaler:   filepath.Join(dir, "scaler.json"),

		StudentTopFeatures: filepath.Join(dir, "top_student_features.json"),
	}

	writeJSON(t, cfg.StudentTopFeatures, StudentTopFeatures)

	writeJSON(t, cfg.StudentModel, map[string]interface{}{
		"type":          ml.TypeForestClassifier,
		"classes":       []int{0, 1, 2},
		"n_features":    len(student),
		"feature_names": student,
		"trees": []ml.DecisionTree{
			stump(indexOf(student, "Curricular units 2nd sem (approved)"), 3, []float64{6, 3, 1}, []float64{1, 2, 7}),
			stump(indexOf(student, "Tuition fees up to date"), 0.5, []float64{8, 1, 1}, []float64{2, 3, 5}),
		},
	})

	writeJSON(t, cfg.CancerModel, map[string]interface{}{
		"type":          ml.TypeForestRegressor,
		"n_features":    len(cancer),
		"feature_names": cancer,
		"trees": []ml.DecisionTree{
			stump(indexOf(cancer, "incidencerate"), 500, []float64{170.4}, []float64{200.2}),
			stump(indexOf(cancer, "povertypercent"), 20, []float64{180.6}, []float64{210.8}),
		},
	})

	cols := feature.ShipColumns
	defaults := feature.Ship.Defaults()
	mean := make([]float64, len(cols))
	scale := make([]float64, len(cols))
	for i, c := range cols {
		scale[i] = 1
		if v, ok := defaults.Values[c]; ok {
			mean[i] = v
			scale[i] = v
		}
	}
	writeJSON(t, cfg.ShipScaler, map[string]interface{}{
		"type":          ml.TypeStandardScaler,
		"mean":          mean,
		"scale":         scale,
		"feature_names": cols,
	})

	writeJSON(t, cfg.ShipModel, map[string]interface{}{
		"type": ml.TypeKMeans,
		"centroids": [][]float64{
			centroid(cols, "Ship_Type_Tanker", "Maintenance_Status_Critical"),
			centroid(cols, "Ship_Type_Bulk Carrier", "Engine_Type_Diesel", "Maintenance_Status_Good"),
			centroid(cols, "Ship_Type_Fish Carrier", "Engine_Type_Steam Turbine", "Maintenance_Status_Good"),
		},
		"feature_names": cols,
	})
	return cfg
}

// WriteJSON writes v to path, failing the test on error.
func WriteJSON(t testing.TB, path string, v interface{}) {
	t.Helper()
	writeJSON(t, path, v)
}

func writeJSON(t testing.TB, path string, v interface{}) {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("artifactstest: marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("artifactstest: write %s: %v", path, err)
	}
}

func stump(idx int, threshold float64, left, right []float64) ml.DecisionTree {
	return ml.DecisionTree{Nodes: []ml.TreeNode{
		{FeatureIdx: idx, Threshold: threshold, LeftChild: 1, RightChild: 2, Value: sum(left, right)},
		{FeatureIdx: -2, Threshold: -2, LeftChild: -1, RightChild: -1, Value: left},
		{FeatureIdx: -2, Threshold: -2, LeftChild: -1, RightChild: -1, Value: right},
	}}
}

func sum(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func centroid(cols []string, hot ...string) []float64 {
	c := make([]float64, len(cols))
	for _, h := range hot {
		c[indexOf(cols, h)] = 1
	}
	return c
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	panic("artifactstest: unknown column " + name)
}
