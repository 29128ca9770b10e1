// Package safemath provides checked arithmetic for token amounts.
package safemath

import (
	"errors"
	"fmt"
	"math/bits"
)

var (
	ErrOverflow  = errors.New("number overflow")
	ErrUnderflow = errors.New("number underflow")
)

func Add64(a, b uint64) (uint64, bool) {
	v, carry := bits.Add64(a, b, 0)
	return v, carry == 0
}

func Sub64(a, b uint64) (uint64, bool) {
	v, borrow := bits.Sub64(a, b, 0)
	return v, borrow == 0
}

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	v, ok := Add64(a, b)
	if !ok {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return v, nil
}

// Sub returns a-b or ErrUnderflow.
func Sub(a, b uint64) (uint64, error) {
	v, ok := Sub64(a, b)
	if !ok {
		return 0, fmt.Errorf("%w: %d - %d", ErrUnderflow, a, b)
	}
	return v, nil
}
