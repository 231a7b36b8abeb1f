package world

import (
	"fmt"
	"sync"
)

// BlockType enumerates the block categories navigation cares about.
type BlockType string

const (
	BlockAir BlockType = "air"
	// BlockSolid is a full solid cube: blocks movement and supports standing.
	BlockSolid BlockType = "solid"
	// BlockFluid can be entered and falls are broken by it.
	BlockFluid BlockType = "fluid"
	// BlockPartial is a non-full shape such as a slab or flower.
	BlockPartial BlockType = "partial"
	// BlockPane is a full cube that is not solid for standing, such as glass.
	BlockPane BlockType = "pane"
)

// ParseBlockType maps a textual label to a BlockType.
func ParseBlockType(value string) (BlockType, error) {
	switch BlockType(value) {
	case "", BlockAir:
		return BlockAir, nil
	case BlockSolid, BlockFluid, BlockPartial, BlockPane:
		return BlockType(value), nil
	default:
		return "", fmt.Errorf("unknown block type %q", value)
	}
}

func blockIsAir(block BlockType) bool {
	return block == "" || block == BlockAir
}

// column stores a dense vertical run of blocks starting at base.
type column struct {
	base   int
	blocks []BlockType
}

func (c *column) get(y int) BlockType {
	idx := y - c.base
	if idx < 0 || idx >= len(c.blocks) {
		return BlockAir
	}
	return c.blocks[idx]
}

func (c *column) set(y int, block BlockType) {
	if len(c.blocks) == 0 {
		c.base = y
		c.blocks = []BlockType{block}
		return
	}
	if y < c.base {
		expanded := make([]BlockType, len(c.blocks)+c.base-y)
		copy(expanded[c.base-y:], c.blocks)
		c.blocks = expanded
		c.base = y
	} else if y-c.base >= len(c.blocks) {
		expanded := make([]BlockType, y-c.base+1)
		copy(expanded, c.blocks)
		c.blocks = expanded
	}
	c.blocks[y-c.base] = block
	c.trim()
}

// trim drops air from both ends so empty columns can be deleted.
func (c *column) trim() {
	start := 0
	for start < len(c.blocks) && blockIsAir(c.blocks[start]) {
		start++
	}
	end := len(c.blocks)
	for end > start && blockIsAir(c.blocks[end-1]) {
		end--
	}
	c.base += start
	c.blocks = c.blocks[start:end]
}

// Grid is an in-memory sparse voxel world implementing Query. It is safe for
// concurrent readers while a single writer edits it.
type Grid struct {
	mu      sync.RWMutex
	columns map[ColumnCoord]*column
	bedrock *int
}

func NewGrid() *Grid {
	return &Grid{columns: make(map[ColumnCoord]*column)}
}

// SetBedrock makes every cell at or below y solid regardless of stored columns.
func (g *Grid) SetBedrock(y int) {
	g.mu.Lock()
	g.bedrock = &y
	g.mu.Unlock()
}

func (g *Grid) Block(c Cell) BlockType {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if col, ok := g.columns[c.Column()]; ok {
		if block := col.get(c.Y); !blockIsAir(block) {
			return block
		}
	}
	if g.bedrock != nil && c.Y <= *g.bedrock {
		return BlockSolid
	}
	return BlockAir
}

func (g *Grid) Set(c Cell, block BlockType) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := c.Column()
	col, ok := g.columns[key]
	if !ok {
		if blockIsAir(block) {
			return
		}
		col = &column{}
		g.columns[key] = col
	}
	if blockIsAir(block) {
		block = ""
	}
	col.set(c.Y, block)
	if len(col.blocks) == 0 {
		delete(g.columns, key)
	}
}

func (g *Grid) Clear(c Cell) {
	g.Set(c, BlockAir)
}

// Fill sets every cell inside the inclusive bounds.
func (g *Grid) Fill(b Bounds, block BlockType) {
	for x := b.Min.X; x <= b.Max.X; x++ {
		for z := b.Min.Z; z <= b.Max.Z; z++ {
			for y := b.Min.Y; y <= b.Max.Y; y++ {
				g.Set(Cell{X: x, Y: y, Z: z}, block)
			}
		}
	}
}

// ForEachBlock iterates over non-air blocks. Iteration order is unspecified.
func (g *Grid) ForEachBlock(fn func(c Cell, block BlockType) bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for key, col := range g.columns {
		for i, block := range col.blocks {
			if blockIsAir(block) {
				continue
			}
			if !fn(Cell{X: key.X, Y: col.base + i, Z: key.Z}, block) {
				return
			}
		}
	}
}

// HighestSolid returns the Y of the topmost solid block in the column, if any.
func (g *Grid) HighestSolid(x, z int) (int, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if col, ok := g.columns[ColumnCoord{X: x, Z: z}]; ok {
		for i := len(col.blocks) - 1; i >= 0; i-- {
			if col.blocks[i] == BlockSolid {
				return col.base + i, true
			}
		}
	}
	if g.bedrock != nil {
		return *g.bedrock, true
	}
	return 0, false
}

func (g *Grid) IsSolid(c Cell) bool {
	return g.Block(c) == BlockSolid
}

func (g *Grid) IsFluid(c Cell) bool {
	return g.Block(c) == BlockFluid
}

func (g *Grid) IsFullyPassable(c Cell) bool {
	switch g.Block(c) {
	case BlockSolid, BlockPane:
		return false
	default:
		return true
	}
}
