// Package either provides a two-variant result value used across the catalog
// layers for expected failures: Left holds the failure, Right the success.
package either

// Either holds exactly one of a left (failure) or right (success) value.
type Either[L, R any] struct {
	left    L
	right   R
	isRight bool
}

// Left builds a failure value.
func Left[L, R any](value L) Either[L, R] {
	return Either[L, R]{left: value}
}

// Right builds a success value.
func Right[L, R any](value R) Either[L, R] {
	return Either[L, R]{right: value, isRight: true}
}

// IsLeft reports whether e holds a failure.
func (e Either[L, R]) IsLeft() bool {
	return !e.isRight
}

// IsRight reports whether e holds a success.
func (e Either[L, R]) IsRight() bool {
	return e.isRight
}

// Value returns whichever payload is held. Callers check IsLeft/IsRight first.
func (e Either[L, R]) Value() any {
	if e.isRight {
		return e.right
	}
	return e.left
}

// LeftValue returns the failure payload, or the zero L when e is a Right.
func (e Either[L, R]) LeftValue() L {
	return e.left
}

// RightValue returns the success payload, or the zero R when e is a Left.
func (e Either[L, R]) RightValue() R {
	return e.right
}

// Fold applies onLeft or onRight depending on the variant.
func Fold[L, R, T any](e Either[L, R], onLeft func(L) T, onRight func(R) T) T {
	if e.isRight {
		return onRight(e.right)
	}
	return onLeft(e.left)
}

// Map transforms the right side and passes a left through untouched.
func Map[L, R, T any](e Either[L, R], fn func(R) T) Either[L, T] {
	if e.isRight {
		return Right[L](fn(e.right))
	}
	return Left[L, T](e.left)
}

// MapLeft transforms the left side and passes a right through untouched.
func MapLeft[L, R, T any](e Either[L, R], fn func(L) T) Either[T, R] {
	if e.isRight {
		return Right[T](e.right)
	}
	return Left[T, R](fn(e.left))
}

// Get converts an Either with an error on the left into the usual (value, error)
// pair. A right always yields a nil error interface, even when L is a pointer type.
func Get[L error, R any](e Either[L, R]) (R, error) {
	if e.isRight {
		return e.right, nil
	}
	return e.right, e.left
}
