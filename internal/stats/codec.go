package stats

import (
	"encoding/json"
	"fmt"
	"io"
)

// objectFile is the on-disk shape of a serialized matrix.  The vectors are
// authoritative; the matrix is stored for readers that only want counts.
type objectFile struct {
	Actual    []float64 `json:"actual_vector"`
	Predicted []float64 `json:"predict_vector"`
	Classes   []float64 `json:"classes"`
	Matrix    [][]int   `json:"matrix"`
}

// Save writes the matrix as JSON.
func (cm *ConfusionMatrix) Save(w io.Writer) error {
	return json.NewEncoder(w).Encode(objectFile{
		Actual:    cm.Actual,
		Predicted: cm.Predicted,
		Classes:   cm.Classes,
		Matrix:    cm.Matrix,
	})
}

// Load reads a matrix previously written by Save and rebuilds it from the
// stored vectors and classes.
func Load(r io.Reader) (*ConfusionMatrix, error) {
	var obj objectFile
	if err := json.NewDecoder(r).Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode matrix object: %w", err)
	}
	if len(obj.Classes) == 0 {
		return New(obj.Actual, obj.Predicted)
	}
	return NewWithClasses(obj.Actual, obj.Predicted, obj.Classes)
}
