package repl

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/lam/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "list", "types", "scopes", "reset", "edit", "clear", "quit",
}

// isWordBoundary reports whether r ends a completion word. Words are
// identifiers, so everything but letters and digits is a boundary,
// including the lambda letter.
func isWordBoundary(r rune) bool {
	return r == 'λ' || !(unicode.IsLetter(r) || unicode.IsDigit(r))
}

// wordBounds returns the word at the cursor and its byte boundaries within
// input. The word is empty when the cursor sits between two boundaries.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// typePosition reports whether the word starting at wordStart follows a
// ':' and so names a type.
func typePosition(input string, wordStart int) bool {
	return strings.HasSuffix(
		strings.TrimRightFunc(input[:wordStart], unicode.IsSpace), ":",
	)
}

// candidate is a completion offered for the current word.
type candidate struct {
	name     string
	callable bool
}

// completions returns the global names of s, or only its type definitions
// when types is set.
func completions(s *lang.Session, types bool) []candidate {
	var out []candidate

	for _, b := range s.Definitions() {
		out = append(out, candidate{name: b.Name})
	}

	if types {
		return out
	}

	for _, b := range s.Names() {
		out = append(out, candidate{name: b.Name, callable: b.Type.IsClosure()})
	}

	return out
}

// candidateSource adapts a candidate list to [fuzzy.Source].
type candidateSource []candidate

func (c candidateSource) String(i int) string { return c[i].name }
func (c candidateSource) Len() int            { return len(c) }

// computeMatches calculates the fuzzy match results for the word at the
// cursor, ranked best first. An empty word has no matches so that the hint
// line stays visible.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []candidate,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.cursor())
	if word == "" {
		return nil, nil, wordStart, wordEnd
	}

	if m.mode == modeCtrl {
		for _, c := range ctrlCommands {
			candidates = append(candidates, candidate{name: c})
		}
	} else {
		candidates = completions(m.session, typePosition(input, wordStart))
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.FindFrom(word, candidateSource(candidates)), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. The selected candidate (when tabbing) uses
// the selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	candidates []candidate,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		selected := tabActive && i == suggIdx
		rendered := renderCandidate(match, candidates[match.Index].callable, selected)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if i > 0 && used+entryWidth+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Closures are marked with a trailing lambda that is not part
// of the completion.
func renderCandidate(match fuzzy.Match, callable, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := matchStyle

	if selected {
		baseStyle = selectedStyle
		highlightStyle = selectedMatchStyle
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	if callable {
		b.WriteString(hintStyle.Render("λ"))
	}

	return b.String()
}
