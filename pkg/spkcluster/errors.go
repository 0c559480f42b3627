package spkcluster

import "errors"

// ErrNotSquare is returned when a matrix entering the clustering pipeline
// is not square.
var ErrNotSquare = errors.New("spkcluster: affinity matrix is not square")

// ErrNoScales is returned when a session carries no scale records.
var ErrNoScales = errors.New("spkcluster: session has no scales")
