package util

// --------------------------------------------------------------------------
// Hash Functions
// --------------------------------------------------------------------------

// UintKey is a uint64 hash value
type UintKey uint64

// HashString generates a hash value for a string with a seed
// This function uses the FNV-1a hash algorithm, which is fast and has good distribution
func HashString(s string, seed uint64) UintKey {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	// the seed is folded into the offset basis, seed 0 is plain FNV-1a
	hash := uint64(offset64) ^ seed

	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= prime64
	}

	return UintKey(hash)
}

// RouteID returns the id under which the RPC surface addresses the store of a namespace.
// Client and server derive it independently, so it must never change for a given namespace.
func RouteID(namespace string) uint64 {
	return uint64(HashString(namespace, 0))
}
