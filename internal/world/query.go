package world

// Query answers solidity and fluid questions about a voxel grid. Implementations
// must be read-only and must not block; every navigation component calls them
// many times per tick.
type Query interface {
	// IsSolid reports whether the cell is a full solid block that cannot be entered.
	IsSolid(c Cell) bool
	// IsFluid reports whether the cell holds a fluid.
	IsFluid(c Cell) bool
	// IsFullyPassable reports whether nothing in the cell forms a full-cube obstruction.
	IsFullyPassable(c Cell) bool
}

// Passable reports whether a body can occupy the cell. Fluids and non-full shapes count.
func Passable(q Query, c Cell) bool {
	return !q.IsSolid(c)
}
