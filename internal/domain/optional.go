package domain

// Optional carries a scalar that a change-set may or may not supply.
// The zero value is absent.
type Optional[T any] struct {
	value   T
	present bool
}

// Some wraps a present value.
func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

// None returns an absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// IsPresent reports whether a value was supplied.
func (o Optional[T]) IsPresent() bool {
	return o.present
}

// OrElse returns the value when present, otherwise fallback.
func (o Optional[T]) OrElse(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

// FromPointer converts a nil-able pointer into an Optional.
func FromPointer[T any](ptr *T) Optional[T] {
	if ptr == nil {
		return None[T]()
	}
	return Some(*ptr)
}

// Pointer returns a pointer to a copy of the value, or nil when absent.
func (o Optional[T]) Pointer() *T {
	if !o.present {
		return nil
	}
	v := o.value
	return &v
}
