package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/odelab/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Times  []float64            `json:"times"`
	Series map[string][]float64 `json:"series"`
}

// ExportJSON writes a run and its samples as a single JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, traj *dynamo.Trajectory) error {
	data := ExportData{
		RunMetadata: meta,
		Times:       traj.T,
		Series:      make(map[string][]float64, traj.Dim()),
	}
	for i, ys := range traj.Y {
		data.Series[traj.Label(i)] = ys
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
