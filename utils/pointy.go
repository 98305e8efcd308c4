package utils

// Pointy returns a pointer to a copy of x.
func Pointy[T any](x T) *T {
	return &x
}

// PointyIntToPointUint64 converts a pointer to an int into a pointer to a
// uint64, allocating a new uint64 holding the same value.
func PointyIntToPointUint64(x *int) *uint64 {
	if x == nil {
		return nil
	}
	v := uint64(*x)
	return &v
}
