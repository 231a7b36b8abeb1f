package world

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// zstdMagic prefixes every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Snapshot is the on-disk description of a test or harness world.
//
// Layers are drawn top-down as rows of characters: one row per Z, one character
// per X starting at Origin. '#' solid, '~' fluid, '_' partial, '|' pane, '.' or
// ' ' air.
type Snapshot struct {
	Origin  CellSpec    `yaml:"origin"`
	Bedrock *int        `yaml:"bedrock,omitempty"`
	Fills   []FillSpec  `yaml:"fills,omitempty"`
	Layers  []LayerSpec `yaml:"layers,omitempty"`
}

type CellSpec struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

func (c CellSpec) Cell() Cell {
	return Cell{X: c.X, Y: c.Y, Z: c.Z}
}

type FillSpec struct {
	Min   CellSpec `yaml:"min"`
	Max   CellSpec `yaml:"max"`
	Block string   `yaml:"block"`
}

type LayerSpec struct {
	Y    int      `yaml:"y"`
	Rows []string `yaml:"rows"`
}

var errEmptySnapshot = errors.New("snapshot has no blocks")

// LoadSnapshotFile reads a snapshot manifest from disk; zstd-compressed files are detected automatically.
func LoadSnapshotFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return LoadSnapshot(f)
}

// LoadSnapshot decodes a snapshot manifest into a Grid.
func LoadSnapshot(r io.Reader) (*Grid, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var src io.Reader = br
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		defer dec.Close()
		src = dec
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap.Build()
}

// Build materialises the snapshot into a new Grid.
func (s Snapshot) Build() (*Grid, error) {
	if s.Bedrock == nil && len(s.Fills) == 0 && len(s.Layers) == 0 {
		return nil, errEmptySnapshot
	}
	grid := NewGrid()
	if s.Bedrock != nil {
		grid.SetBedrock(*s.Bedrock)
	}
	origin := s.Origin.Cell()
	for i, fill := range s.Fills {
		block, err := ParseBlockType(fill.Block)
		if err != nil {
			return nil, fmt.Errorf("fills[%d]: %w", i, err)
		}
		grid.Fill(Bounds{
			Min: fill.Min.Cell().Add(origin.X, origin.Y, origin.Z),
			Max: fill.Max.Cell().Add(origin.X, origin.Y, origin.Z),
		}, block)
	}
	for i, layer := range s.Layers {
		for z, row := range layer.Rows {
			for x, ch := range []rune(row) {
				block, err := blockFromRune(ch)
				if err != nil {
					return nil, fmt.Errorf("layers[%d] row %d col %d: %w", i, z, x, err)
				}
				if blockIsAir(block) {
					continue
				}
				grid.Set(Cell{X: origin.X + x, Y: origin.Y + layer.Y, Z: origin.Z + z}, block)
			}
		}
	}
	return grid, nil
}

func blockFromRune(ch rune) (BlockType, error) {
	switch ch {
	case '.', ' ':
		return BlockAir, nil
	case '#':
		return BlockSolid, nil
	case '~':
		return BlockFluid, nil
	case '_':
		return BlockPartial, nil
	case '|':
		return BlockPane, nil
	default:
		return "", fmt.Errorf("unknown block glyph %q", ch)
	}
}
