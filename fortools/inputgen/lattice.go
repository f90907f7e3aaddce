package inputgen

import (
	"fmt"
	"math"
)

type Atom struct {
	Label string
	X     float64
	Y     float64
	Z     float64
}

// Record formats the atom as a coordinate line.
func (self Atom) Record() string {
	return fmt.Sprintf("%s %f %f %f", self.Label, self.X, self.Y, self.Z)
}

// Coordinates packs size atoms on a simple cubic lattice. Layers of
// nx*ny atoms are stacked along z; rows run along y and the innermost
// index along x.
func Coordinates(size int, latticeConst float64) ([]Atom, error) {
	if size < 1 {
		return nil, fmt.Errorf("size must be positive, got %d", size)
	}
	if latticeConst <= 0 {
		return nil, fmt.Errorf("lattice constant must be positive, got %f", latticeConst)
	}

	nx := math.Floor(math.Cbrt(float64(size)))
	ny := math.Floor(math.Sqrt(float64(size) / nx))
	layers := int(math.Ceil(float64(size)/nx/ny)) + 1

	atoms := make([]Atom, 0, size)
	for i := 0; i < layers; i++ {
		z := float64(i) * latticeConst
		for j := 0; j < int(nx); j++ {
			y := float64(j) * latticeConst
			for k := 0; k < int(ny); k++ {
				atoms = append(atoms, Atom{Label: "X", X: float64(k) * latticeConst, Y: y, Z: z})
				if len(atoms) == size {
					return atoms, nil
				}
			}
		}
	}

	return nil, fmt.Errorf("lattice of %d layers cannot hold %d atoms", layers, size)
}
