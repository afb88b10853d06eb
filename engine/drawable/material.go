package drawable

import (
	"sync"
	"sync/atomic"
)

// objectHashCounter hands out unique non-zero identity hashes for geometries,
// materials, techniques and passes. Identity hashes feed the batch sort keys
// and cache keys.
var objectHashCounter atomic.Uint32

func nextObjectHash() uint32 {
	return objectHashCounter.Add(1)
}

// passIndexRegistry maps pass names to stable indices. Indices are assigned on
// first use and never change for the lifetime of the process.
var passIndexRegistry = struct {
	mu      sync.Mutex
	indices map[string]uint32
}{indices: make(map[string]uint32)}

// PassIndex returns the stable index for a pass name, assigning one on first
// use. Safe for concurrent use.
//
// Parameters:
//   - name: the pass name, e.g. "base", "litbase", "light", "shadow"
//
// Returns:
//   - uint32: the stable pass index
func PassIndex(name string) uint32 {
	passIndexRegistry.mu.Lock()
	defer passIndexRegistry.mu.Unlock()
	if index, ok := passIndexRegistry.indices[name]; ok {
		return index
	}
	index := uint32(len(passIndexRegistry.indices))
	passIndexRegistry.indices[name] = index
	return index
}

// Geometry is an opaque renderable geometry with a stable identity hash.
// The GPU buffers behind it are irrelevant to batch collection.
type Geometry interface {
	// Hash returns the geometry's stable identity hash.
	Hash() uint32
}

type geometryImpl struct {
	hash uint32
}

var _ Geometry = &geometryImpl{}

// NewGeometry creates a geometry with a fresh identity hash.
func NewGeometry() Geometry {
	return &geometryImpl{hash: nextObjectHash()}
}

func (g *geometryImpl) Hash() uint32 {
	return g.hash
}

// Pass is a single shader pass of a technique. Its shader hash feeds the
// batch sort key so batches with the same shaders render adjacently.
type Pass interface {
	// Name returns the pass name.
	Name() string

	// Index returns the pass's stable registry index.
	Index() uint32

	// Hash returns the pass's identity hash.
	Hash() uint32

	// ShaderHash returns a hash of the pass's shader program selection.
	ShaderHash() uint32
}

type passImpl struct {
	name       string
	index      uint32
	hash       uint32
	shaderHash uint32
}

var _ Pass = &passImpl{}

// NewPass creates a pass with the given name and shader hash. The registry
// index is resolved from the name.
//
// Parameters:
//   - name: the pass name
//   - shaderHash: hash of the shader program selection
//
// Returns:
//   - Pass: the newly created pass
func NewPass(name string, shaderHash uint32) Pass {
	return &passImpl{
		name:       name,
		index:      PassIndex(name),
		hash:       nextObjectHash(),
		shaderHash: shaderHash,
	}
}

func (p *passImpl) Name() string {
	return p.name
}

func (p *passImpl) Index() uint32 {
	return p.index
}

func (p *passImpl) Hash() uint32 {
	return p.hash
}

func (p *passImpl) ShaderHash() uint32 {
	return p.shaderHash
}

// Technique is a set of passes addressed by pass index.
type Technique interface {
	// GetPass returns the pass for an index, or nil when the technique does
	// not implement it.
	GetPass(index uint32) Pass
}

type techniqueImpl struct {
	passes map[uint32]Pass
}

var _ Technique = &techniqueImpl{}

// NewTechnique creates a technique from its passes.
//
// Parameters:
//   - passes: the passes the technique implements
//
// Returns:
//   - Technique: the newly created technique
func NewTechnique(passes ...Pass) Technique {
	t := &techniqueImpl{passes: make(map[uint32]Pass, len(passes))}
	for _, pass := range passes {
		t.passes[pass.Index()] = pass
	}
	return t
}

func (t *techniqueImpl) GetPass(index uint32) Pass {
	return t.passes[index]
}

// TechniqueEntry pairs a technique with the quality level and LOD distance it
// applies from.
type TechniqueEntry struct {
	Technique Technique
	// Quality is the minimum material quality level the entry requires.
	Quality int
	// LodDistance is the minimum view distance the entry applies from.
	LodDistance float32
}

// Material selects techniques by quality and distance and carries the render
// order used as the most significant part of the batch sort key.
type Material interface {
	// Hash returns the material's identity hash.
	Hash() uint32

	// RenderOrder returns the material's render order. Lower orders render
	// first within a pass.
	RenderOrder() uint8

	// FindTechnique picks the first technique entry whose quality requirement
	// is met and whose LOD distance covers the given view distance. Entries
	// are checked in the order they were supplied.
	//
	// Parameters:
	//   - distance: the batch view distance
	//   - quality: the configured material quality level
	//
	// Returns:
	//   - Technique: the selected technique, or nil if none applies
	FindTechnique(distance float32, quality int) Technique
}

type materialImpl struct {
	hash        uint32
	renderOrder uint8
	techniques  []TechniqueEntry
}

var _ Material = &materialImpl{}

// NewMaterial creates a material from its technique entries.
//
// Parameters:
//   - renderOrder: render order within a pass, 128 is the default midpoint
//   - techniques: technique entries in priority order
//
// Returns:
//   - Material: the newly created material
func NewMaterial(renderOrder uint8, techniques ...TechniqueEntry) Material {
	return &materialImpl{
		hash:        nextObjectHash(),
		renderOrder: renderOrder,
		techniques:  techniques,
	}
}

func (m *materialImpl) Hash() uint32 {
	return m.hash
}

func (m *materialImpl) RenderOrder() uint8 {
	return m.renderOrder
}

func (m *materialImpl) FindTechnique(distance float32, quality int) Technique {
	for _, entry := range m.techniques {
		if quality >= entry.Quality && distance >= entry.LodDistance {
			return entry.Technique
		}
	}
	return nil
}
