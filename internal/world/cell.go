package world

import "math"

// Cell describes a voxel position in global block space. Y is the vertical axis.
type Cell struct {
	X int
	Y int
	Z int
}

// CellAt returns the cell containing the given continuous position.
func CellAt(x, y, z float64) Cell {
	return Cell{
		X: int(math.Floor(x)),
		Y: int(math.Floor(y)),
		Z: int(math.Floor(z)),
	}
}

func (c Cell) Add(dx, dy, dz int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

func (c Cell) Up() Cell {
	return Cell{X: c.X, Y: c.Y + 1, Z: c.Z}
}

func (c Cell) Down() Cell {
	return Cell{X: c.X, Y: c.Y - 1, Z: c.Z}
}

// UpN returns the cell n levels above c.
func (c Cell) UpN(n int) Cell {
	return Cell{X: c.X, Y: c.Y + n, Z: c.Z}
}

// DownN returns the cell n levels below c.
func (c Cell) DownN(n int) Cell {
	return Cell{X: c.X, Y: c.Y - n, Z: c.Z}
}

// DistanceSq returns the squared euclidean distance between two cells.
func (c Cell) DistanceSq(other Cell) int {
	dx := c.X - other.X
	dy := c.Y - other.Y
	dz := c.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

func (c Cell) Distance(other Cell) float64 {
	return math.Sqrt(float64(c.DistanceSq(other)))
}

// Center returns the continuous coordinates of the middle of the cell.
func (c Cell) Center() (float64, float64, float64) {
	return float64(c.X) + 0.5, float64(c.Y) + 0.5, float64(c.Z) + 0.5
}

// ColumnCoord identifies a vertical column of cells.
type ColumnCoord struct {
	X int
	Z int
}

func (c Cell) Column() ColumnCoord {
	return ColumnCoord{X: c.X, Z: c.Z}
}

// Bounds is an axis-aligned box represented by inclusive min/max corners in block space.
type Bounds struct {
	Min Cell
	Max Cell
}

func (b Bounds) Contains(c Cell) bool {
	return c.X >= b.Min.X && c.X <= b.Max.X &&
		c.Y >= b.Min.Y && c.Y <= b.Max.Y &&
		c.Z >= b.Min.Z && c.Z <= b.Max.Z
}
