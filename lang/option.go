package lang

import (
	"github.com/ardnew/lam/lang/library"
	"github.com/ardnew/lam/log"
)

// Option configures a [Session].
type Option func(*Session)

// WithLogger sets the structured logger for trace-level debugging.
func WithLogger(logger log.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithExtensions adds extension modules to the global scope.
func WithExtensions(exts ...library.Extension) Option {
	return func(s *Session) { s.extensions = append(s.extensions, exts...) }
}

// WithAtomic enables rollback of statements that are not accepted.
func WithAtomic(atomic bool) Option {
	return func(s *Session) { s.atomic = atomic }
}

// WithCache enables the process-wide parse cache. It is enabled by default.
func WithCache(cache bool) Option {
	return func(s *Session) { s.cache = cache }
}

// WithMaxDepth bounds statement nesting.
func WithMaxDepth(depth int) Option {
	return func(s *Session) { s.maxDepth = depth }
}
