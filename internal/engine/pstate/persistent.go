package pstate

// pmap is a small persistent (immutable, structurally shared) map. Each Put
// allocates a new overlay frame that shadows its parent instead of copying
// the whole map (spec.md §9: "Do NOT copy the full maps on every
// transformation"). Frames are flattened back into a single map once a
// lookup chain grows past flattenThreshold, bounding Get's worst case.
//
// No persistent-map library appears anywhere in the retrieved example
// corpus — every example repo that needs a map-like registry (teacher's
// FunctionRegistry, ClassRegistry, ...) hand-rolls one over a plain Go map.
// pmap follows that same house style, generalized to be copy-on-write.
type pmap[K comparable, V any] struct {
	parent *pmap[K, V]
	local  map[K]V
	tomb   map[K]bool // keys deleted in this frame, shadowing parent
	size   int
	depth  int
}

const flattenThreshold = 24

func newPMap[K comparable, V any]() *pmap[K, V] {
	return &pmap[K, V]{}
}

func (m *pmap[K, V]) get(k K) (V, bool) {
	for frame := m; frame != nil; frame = frame.parent {
		if frame.tomb != nil && frame.tomb[k] {
			var zero V
			return zero, false
		}
		if v, ok := frame.local[k]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

func (m *pmap[K, V]) put(k K, v V) *pmap[K, V] {
	size := m.size
	if _, existed := m.get(k); !existed {
		size++
	}
	next := &pmap[K, V]{
		parent: m,
		local:  map[K]V{k: v},
		size:   size,
		depth:  m.depth + 1,
	}
	if next.depth > flattenThreshold {
		return next.flatten()
	}
	return next
}

func (m *pmap[K, V]) delete(k K) *pmap[K, V] {
	if _, ok := m.get(k); !ok {
		return m
	}
	next := &pmap[K, V]{
		parent: m,
		tomb:   map[K]bool{k: true},
		size:   m.size - 1,
		depth:  m.depth + 1,
	}
	if next.depth > flattenThreshold {
		return next.flatten()
	}
	return next
}

func (m *pmap[K, V]) flatten() *pmap[K, V] {
	flat := make(map[K]V, m.size)
	m.forEach(func(k K, v V) bool {
		flat[k] = v
		return true
	})
	return &pmap[K, V]{local: flat, size: len(flat)}
}

func (m *pmap[K, V]) len() int {
	return m.size
}

// forEach visits every live key exactly once. Order is unspecified.
func (m *pmap[K, V]) forEach(fn func(K, V) bool) {
	seen := make(map[K]bool)
	for frame := m; frame != nil; frame = frame.parent {
		for k := range frame.tomb {
			seen[k] = true
		}
		for k, v := range frame.local {
			if seen[k] {
				continue
			}
			seen[k] = true
			if !fn(k, v) {
				return
			}
		}
	}
}

// equal reports whether m and other hold the same key/value pairs. V must
// be comparable via eq.
func (m *pmap[K, V]) equal(other *pmap[K, V], eq func(a, b V) bool) bool {
	if m.len() != other.len() {
		return false
	}
	match := true
	m.forEach(func(k K, v V) bool {
		ov, ok := other.get(k)
		if !ok || !eq(v, ov) {
			match = false
			return false
		}
		return true
	})
	return match
}
