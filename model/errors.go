package model

import "errors"

// ErrDuplicateReview marks a second review from the same user for the same
// entry. Defined here so the store and the engine agree on the sentinel.
var ErrDuplicateReview = errors.New("duplicate review")
