package reference

import "math"

// Diff summarizes the distance between two nullable series.
type Diff struct {
	Compared int
	MaxAbs   float64
	// Index of the largest difference, -1 when nothing was compared.
	Index int
}

// Compare walks both series and measures the positions set in both.
func Compare(values, reference []*float64) Diff {
	diff := Diff{Index: -1}
	for i := 0; i < len(values) && i < len(reference); i++ {
		if values[i] == nil || reference[i] == nil {
			continue
		}
		diff.Compared++
		if d := math.Abs(*values[i] - *reference[i]); d > diff.MaxAbs || diff.Index < 0 {
			diff.MaxAbs, diff.Index = d, i
		}
	}
	return diff
}

// Within reports whether every compared position is closer than tolerance.
func (d Diff) Within(tolerance float64) bool {
	return d.MaxAbs <= tolerance
}
