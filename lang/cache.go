package lang

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/lam/lang/ast"
	"github.com/ardnew/lam/lang/diag"
	"github.com/ardnew/lam/lang/parser"
	"github.com/ardnew/lam/log"
)

// globalCache stores parse results keyed by the hash of the statement text
// and the nesting bound. Trees are immutable, so every session may share
// them.
var globalCache sync.Map

// state holds the parse result of one statement.
type state struct {
	once   sync.Once
	source string
	root   ast.Syntax
	diags  []diag.Diagnostic
	err    error
}

type cacheKey struct {
	hash     uint64
	maxDepth int
}

func parseCached(
	ctx context.Context,
	logger log.Logger,
	src string,
	maxDepth int,
	opts ...parser.Option,
) (ast.Syntax, []diag.Diagnostic, error) {
	key := cacheKey{hash: xxh3.HashString(src), maxDepth: maxDepth}

	entry, hit := globalCache.LoadOrStore(key, &state{source: src})
	st := entry.(*state)

	logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(key.hash, 16)),
		slog.Bool("cache_hit", hit),
	)

	// Distinct statements with equal hashes bypass the cache.
	if st.source != src {
		return parser.Parse(src, opts...)
	}

	st.once.Do(func() {
		st.root, st.diags, st.err = parser.Parse(src, opts...)
	})

	return st.root, slices.Clone(st.diags), st.err
}

// ClearCache removes all cached parse results.
// This is primarily useful for testing or when memory needs to be reclaimed.
func ClearCache() { globalCache.Clear() }

// cacheLen returns the number of cached statements.
func cacheLen() int {
	n := 0

	globalCache.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}
