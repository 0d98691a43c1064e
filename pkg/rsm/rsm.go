// Package rsm parses RSM (Resource Model) files: the animated node
// hierarchies Ragnarok Online uses for map props.
//
// Only the node hierarchy, static transforms and keyframes are decoded.
// Mesh data is validated and skipped.
package rsm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/midgard-bake/pkg/encoding"
)

// RSM format errors.
var (
	ErrInvalidMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedVersion = errors.New("unsupported RSM version")
	ErrTruncated          = errors.New("truncated RSM data")
	ErrInvalidCount       = errors.New("invalid RSM element count")
)

const (
	nameLen      = 40
	maxNodes     = 10000
	maxElements  = 100000
	maxKeyframes = 10000
)

// Version represents the RSM file version.
type Version struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v Version) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// PosKey is a position keyframe (v < 1.5).
type PosKey struct {
	Frame    int32
	Position [3]float32
}

// RotKey is a rotation keyframe.
type RotKey struct {
	Frame      int32
	Quaternion [4]float32 // X, Y, Z, W
}

// ScaleKey is a scale keyframe (v >= 1.5).
type ScaleKey struct {
	Frame int32
	Scale [3]float32
}

// Node is one node of the model hierarchy.
type Node struct {
	Name   string
	Parent string // empty for the root

	Matrix   [9]float32 // vertex-only 3x3, not inherited
	Offset   [3]float32 // vertex-only pivot, not inherited
	Position [3]float32
	RotAngle float32 // radians
	RotAxis  [3]float32
	Scale    [3]float32

	PosKeys   []PosKey
	RotKeys   []RotKey
	ScaleKeys []ScaleKey
}

// Model is a parsed RSM file.
type Model struct {
	Version    Version
	AnimLength int32 // milliseconds
	Textures   []string
	RootNode   string
	Nodes      []Node
}

// Parse parses RSM data from a byte slice.
func Parse(data []byte) (*Model, error) {
	if len(data) < 14 {
		return nil, ErrTruncated
	}
	if string(data[:4]) != "GRSM" {
		return nil, ErrInvalidMagic
	}

	r := &reader{r: bytes.NewReader(data[4:])}
	m := &Model{}
	m.Version.Major = r.u8()
	m.Version.Minor = r.u8()
	if m.Version.Major < 1 || m.Version.Major > 2 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, m.Version)
	}

	m.AnimLength = r.i32()
	r.skip(4) // shading
	if m.Version.AtLeast(1, 4) {
		r.skip(1) // alpha
	}
	r.skip(16) // reserved

	textureCount, err := r.count(maxElements)
	if err != nil {
		return nil, fmt.Errorf("texture count: %w", err)
	}
	m.Textures = make([]string, textureCount)
	for i := range m.Textures {
		m.Textures[i] = r.str(nameLen)
	}

	m.RootNode = r.str(nameLen)

	nodeCount, err := r.count(maxNodes)
	if err != nil {
		return nil, fmt.Errorf("node count: %w", err)
	}
	m.Nodes = make([]Node, nodeCount)
	for i := range m.Nodes {
		if err := r.node(&m.Nodes[i], m.Version); err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, err)
		}
	}

	// Volume boxes follow; the baker has no use for them.
	if r.err != nil {
		return nil, r.err
	}
	return m, nil
}

// ParseFile parses an RSM file from disk.
func ParseFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RSM file: %w", err)
	}
	return Parse(data)
}

// NodeByName returns a node by its name, or nil if not found.
func (m *Model) NodeByName(name string) *Node {
	for i := range m.Nodes {
		if m.Nodes[i].Name == name {
			return &m.Nodes[i]
		}
	}
	return nil
}

// Root returns the node named by RootNode, falling back to the first node
// without a parent.
func (m *Model) Root() *Node {
	if n := m.NodeByName(m.RootNode); n != nil {
		return n
	}
	for i := range m.Nodes {
		if m.Nodes[i].Parent == "" {
			return &m.Nodes[i]
		}
	}
	return nil
}

// Children returns the nodes whose parent is name, in file order.
func (m *Model) Children(name string) []*Node {
	var children []*Node
	for i := range m.Nodes {
		n := &m.Nodes[i]
		if n.Parent == name && n.Name != name {
			children = append(children, n)
		}
	}
	return children
}

// HasAnimation reports whether any node carries more than one keyframe.
// A single keyframe is a static pose.
func (m *Model) HasAnimation() bool {
	if m.AnimLength <= 0 {
		return false
	}
	for i := range m.Nodes {
		n := &m.Nodes[i]
		if len(n.RotKeys) > 1 || len(n.PosKeys) > 1 || len(n.ScaleKeys) > 1 {
			return true
		}
	}
	return false
}

// reader is a little-endian reader that keeps the first error.
type reader struct {
	r   *bytes.Reader
	err error
}

func (r *reader) read(v any) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
		r.err = ErrTruncated
	}
}

func (r *reader) u8() uint8 {
	var v uint8
	r.read(&v)
	return v
}

func (r *reader) i32() int32 {
	var v int32
	r.read(&v)
	return v
}

func (r *reader) f32() float32 {
	var v float32
	r.read(&v)
	return v
}

func (r *reader) vec3() [3]float32 {
	var v [3]float32
	r.read(&v)
	return v
}

func (r *reader) str(n int) string {
	buf := make([]byte, n)
	if r.err == nil {
		if _, err := io.ReadFull(r.r, buf); err != nil {
			r.err = ErrTruncated
		}
	}
	return encoding.FixedString(buf)
}

func (r *reader) skip(n int64) {
	if r.err != nil {
		return
	}
	if int64(r.r.Len()) < n {
		r.err = ErrTruncated
		return
	}
	r.r.Seek(n, io.SeekCurrent)
}

// count reads an element count and checks it against limit.
func (r *reader) count(limit int32) (int, error) {
	n := r.i32()
	if r.err != nil {
		return 0, r.err
	}
	if n < 0 || n > limit {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	return int(n), nil
}

func (r *reader) node(n *Node, v Version) error {
	n.Name = r.str(nameLen)
	n.Parent = r.str(nameLen)

	texCount, err := r.count(maxElements)
	if err != nil {
		return fmt.Errorf("texture ids: %w", err)
	}
	r.skip(int64(texCount) * 4)

	r.read(&n.Matrix)
	n.Offset = r.vec3()
	n.Position = r.vec3()
	n.RotAngle = r.f32()
	n.RotAxis = r.vec3()
	n.Scale = r.vec3()

	vertexCount, err := r.count(maxElements)
	if err != nil {
		return fmt.Errorf("vertices: %w", err)
	}
	r.skip(int64(vertexCount) * 12)

	texCoordSize, faceSize := int64(8), int64(20)
	if v.AtLeast(1, 2) {
		// Vertex color and smoothing group.
		texCoordSize, faceSize = 12, 24
	}

	texCoordCount, err := r.count(maxElements)
	if err != nil {
		return fmt.Errorf("texture coords: %w", err)
	}
	r.skip(int64(texCoordCount) * texCoordSize)

	faceCount, err := r.count(maxElements)
	if err != nil {
		return fmt.Errorf("faces: %w", err)
	}
	r.skip(int64(faceCount) * faceSize)

	if !v.AtLeast(1, 5) {
		keyCount, err := r.count(maxKeyframes)
		if err != nil {
			return fmt.Errorf("position keys: %w", err)
		}
		n.PosKeys = make([]PosKey, keyCount)
		for i := range n.PosKeys {
			n.PosKeys[i] = PosKey{Frame: r.i32(), Position: r.vec3()}
		}
	}

	keyCount, err := r.count(maxKeyframes)
	if err != nil {
		return fmt.Errorf("rotation keys: %w", err)
	}
	n.RotKeys = make([]RotKey, keyCount)
	for i := range n.RotKeys {
		k := &n.RotKeys[i]
		k.Frame = r.i32()
		r.read(&k.Quaternion)
	}

	if v.AtLeast(1, 5) {
		keyCount, err := r.count(maxKeyframes)
		if err != nil {
			return fmt.Errorf("scale keys: %w", err)
		}
		n.ScaleKeys = make([]ScaleKey, keyCount)
		for i := range n.ScaleKeys {
			n.ScaleKeys[i] = ScaleKey{Frame: r.i32(), Scale: r.vec3()}
		}
	}

	return r.err
}
