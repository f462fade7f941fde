package cell

import "sync/atomic"

// cacheBox holds the monotone, atomically-published derived-field caches
// embedded by the primitive cell types Long, Char, Str, Blob, Address,
// Keyword and Symbol: a null-to-correct-value cache for the hash and one for
// the memory-size estimate. Their Hash methods fill the hash cache; no cell
// type uses the memory-size cache. Concurrent recomputation before the
// first successful store is benign (redundant work, not a torn read).
type cacheBox struct {
	hash    atomic.Pointer[Hash]
	memSize atomic.Pointer[uint64]
}

func (b *cacheBox) getHash() (Hash, bool) {
	if p := b.hash.Load(); p != nil {
		return *p, true
	}
	return Hash{}, false
}

func (b *cacheBox) setHash(h Hash) {
	b.hash.Store(&h)
}

func (b *cacheBox) getMemSize() (uint64, bool) {
	if p := b.memSize.Load(); p != nil {
		return *p, true
	}
	return 0, false
}

func (b *cacheBox) setMemSize(v uint64) {
	b.memSize.Store(&v)
}

// noRefs is embedded by leaf cell kinds (booleans, longs, chars, flat
// blobs, addresses, keywords, symbols, strings) that hold no child
// references.
type noRefs struct{}

func (noRefs) RefCount() int { return 0 }
func (noRefs) GetRef(int) Ref {
	panic("cell: GetRef called on a cell with RefCount() == 0")
}
