package gen

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Mod returns the non-negative remainder of a/b.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Hash2 is a deterministic 64-bit mix of a seed and 2D coordinates.
func Hash2(seed int64, x, z int) uint64 {
	h := uint64(seed) ^ 0x9e3779b97f4a7c15
	h = mix(h ^ uint64(int64(x))*0xbf58476d1ce4e5b9)
	h = mix(h ^ uint64(int64(z))*0x94d049bb133111eb)
	return h
}

// Hash3 is a deterministic 64-bit mix of a seed and 3D coordinates.
func Hash3(seed int64, x, y, z int) uint64 {
	h := Hash2(seed, x, z)
	h = mix(h ^ uint64(int64(y))*0xd6e8feb86659fd93)
	return h
}

func mix(h uint64) uint64 {
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return h
}

// SurfaceY picks a deterministic terrain surface height for a column,
// between minY and maxY inclusive. Adjacent columns are blended so the
// surface is not pure noise.
func SurfaceY(seed int64, x, z, minY, maxY int) int {
	if maxY <= minY {
		return minY
	}
	span := maxY - minY + 1
	// Average the column's own roll with its +x/+z neighbors for mild slope.
	a := int(Hash2(seed, x, z) % uint64(span))
	b := int(Hash2(seed, x+1, z) % uint64(span))
	c := int(Hash2(seed, x, z+1) % uint64(span))
	return minY + (a+b+c)/3
}
