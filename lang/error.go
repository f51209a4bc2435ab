package lang

import "github.com/ardnew/lam/pkg"

// Predefined errors (sentinel values).
var (
	ErrReadInput = pkg.NewError("failed to read input")
)
