package model

// ScoreVector holds the eight heuristic quality axes (each in [0, 10]) plus
// the composite attention score (in [0, 100]) for a pull request. It is
// derived data, recomputed on demand and never persisted.
type ScoreVector struct {
	CodeQuality float64
	Verbosity   float64
	Efficiency  float64
	Stability   float64
	Robustness  float64
	CleanCode   float64
	Reusability float64
	Ingenuity   float64
	Attention   float64
}
