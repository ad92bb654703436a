package envutil

// Option post-processes a Reader. The typed constructors apply options in order.
type Option[T any] func(Reader[T]) Reader[T]

// Default fills in dfl when the variable is unset. Malformed values keep their error.
func Default[T any](dfl T) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		if rdr.present {
			return rdr
		}

		rdr.present = true
		rdr.value = dfl

		return rdr
	}
}

// Validate fails the Reader with f's error when f rejects the value.
func Validate[T any](f func(T) error) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return Map(rdr, func(val T) (T, error) {
			return val, f(val)
		})
	}
}
