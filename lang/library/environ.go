package library

import (
	"math"
	"os"

	"github.com/ardnew/mung"
	"github.com/expr-lang/expr"
)

// Names of the functions that replace the integer operators of extension
// expressions.
const (
	opAdd = "_add"
	opSub = "_sub"
	opMul = "_mul"
)

// operators routes +, - and * through the checked functions in environ.
func operators() []expr.Option {
	return []expr.Option{
		expr.Operator("+", opAdd),
		expr.Operator("-", opSub),
		expr.Operator("*", opMul),
	}
}

// environ returns the names every extension expression sees besides its
// parameters. Integer arithmetic sets *wrapped when a result does not fit
// in an int.
func environ(wrapped *bool) map[string]any {
	return map[string]any{
		opAdd: func(a, b int) int {
			s := a + b
			if (b > 0 && s < a) || (b < 0 && s > a) {
				*wrapped = true
			}

			return s
		},
		opSub: func(a, b int) int {
			d := a - b
			if (b > 0 && d > a) || (b < 0 && d < a) {
				*wrapped = true
			}

			return d
		},
		opMul: func(a, b int) int {
			p := a * b
			if a != 0 && (p/a != b || (a == -1 && b == math.MinInt)) {
				*wrapped = true
			}

			return p
		},

		// PATH-like lists.
		"mung": map[string]any{
			"prefix":   pathPrefix,
			"prefixif": pathPrefixIf,
		},
	}
}

// pathPrefix moves or inserts items at the front of the list held in
// subject, which is separated by [os.PathListSeparator].
func pathPrefix(subject string, items ...string) string {
	return mung.Make(
		mung.WithSubjectItems(subject),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
	).String()
}

// pathPrefixIf is [pathPrefix] keeping only the elements accepted by keep.
func pathPrefixIf(subject string, keep func(string) bool, items ...string) string {
	return mung.Make(
		mung.WithSubjectItems(subject),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
		mung.WithFilter(keep),
	).String()
}
