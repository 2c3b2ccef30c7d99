// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"errors"
	"strconv"
)

// ErrNotPositive is returned by ParsePositive for input that is not an
// integer >= 1.
var ErrNotPositive = errors.New("must be a positive integer")

// ParsePositive parses s as an integer >= 1. An empty string yields def.
//
// Example:
//
//	n, _ := utils.ParsePositive("42", 10) // 42
//	n, _ = utils.ParsePositive("", 10)    // 10
//	_, err := utils.ParsePositive("0", 10) // ErrNotPositive
func ParsePositive(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, ErrNotPositive
	}
	return n, nil
}

// TotalPages returns ceil(total/limit), or 0 when limit is not positive.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
