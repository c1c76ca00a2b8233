package utils

// Value dereferences v, returning the zero value for nil. Most optional DTO
// fields are pointers.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}

// NilIfZero returns nil when v is nil or points at the zero value, so an empty
// optional id is sent as JSON null.
func NilIfZero[T comparable](v *T) *T {
	var zero T
	if v == nil || *v == zero {
		return nil
	}
	return v
}
