// Copyright 2026 hipacc-go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package entity

// Table holds entities keyed by their declaration object, iterable in
// insertion order.
type Table[V any] struct {
	keys []Key
	vals map[Key]V
}

// Add records v under k, replacing an earlier record for the same key
// without disturbing its position.
func (t *Table[V]) Add(k Key, v V) {
	if t.vals == nil {
		t.vals = make(map[Key]V)
	}
	if _, ok := t.vals[k]; !ok {
		t.keys = append(t.keys, k)
	}
	t.vals[k] = v
}

// Get returns the entity recorded under k.
func (t *Table[V]) Get(k Key) (V, bool) {
	v, ok := t.vals[k]
	return v, ok
}

// Values returns the entities in insertion order.
func (t *Table[V]) Values() []V {
	out := make([]V, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, t.vals[k])
	}
	return out
}

// Len returns the number of entities.
func (t *Table[V]) Len() int { return len(t.keys) }

// Model is the per-run entity model: one table per DSL object class.
// A fresh Model is built for every translation unit.
type Model struct {
	Images             Table[*Image]
	Pyramids           Table[*Pyramid]
	BoundaryConditions Table[*BoundaryCondition]
	Accessors          Table[*Accessor]
	IterationSpaces    Table[*IterationSpace]
	Masks              Table[*Mask]
	KernelClasses      Table[*KernelClass]
	Kernels            Table[*Kernel]

	// MaxImageWidth and MaxImageHeight track the largest constant
	// image extents seen, for the targets that size line buffers at
	// compile time.
	MaxImageWidth, MaxImageHeight int
}

// NewModel returns an empty entity model.
func NewModel() *Model { return &Model{} }

// TrackImageExtent widens the recorded maximum image extents.
func (m *Model) TrackImageExtent(width, height int) {
	if width > m.MaxImageWidth {
		m.MaxImageWidth = width
	}
	if height > m.MaxImageHeight {
		m.MaxImageHeight = height
	}
}
