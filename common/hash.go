package common

// CombineHash folds a value into an accumulated hash. The mixing constant and
// shifts follow the boost::hash_combine recipe.
func CombineHash(hash *uint32, v uint32) {
	*hash ^= v + 0x9e3779b9 + (*hash << 6) + (*hash >> 2)
}

// HashCombined returns the hash of a sequence of values folded together,
// starting from zero.
func HashCombined(values ...uint32) uint32 {
	var hash uint32
	for _, v := range values {
		CombineHash(&hash, v)
	}
	return hash
}
