// Package diff implements a line-oriented Myers shortest-edit-script and
// the hunk grouping that turns it into the "@@ -a,al +b,bl @@" textual
// form. The edit script is produced with the go-diff library's own
// documented line-diffing pattern: map each line to a single rune, run the
// general-purpose Myers diff over those runes, then expand the result back
// into lines.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// EditType classifies one line of an edit script.
type EditType int

const (
	// Eql is a line present, unchanged, on both sides.
	Eql EditType = iota
	// Ins is a line only the new side has.
	Ins
	// Del is a line only the old side has.
	Del
)

// Edit is one line of the script. ANum and BNum are the 1-based line
// cursors on each side immediately before this edit is applied, so a Del
// still carries the B-side position it would sit at if rendered, and an
// Ins still carries the A-side position, the pair a hunk header's range
// is computed from.
type Edit struct {
	Type EditType
	Line string
	ANum int
	BNum int
}

// Lines runs the line-oriented Myers diff between a and b and returns the
// full edit script in order.
func Lines(a, b string) []Edit {
	dmp := diffmatchpatch.New()
	wa, wb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(wa, wb, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var script []Edit
	aLine, bLine := 1, 1
	for _, d := range diffs {
		for _, ln := range splitKeepEmpty(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				script = append(script, Edit{Type: Eql, Line: ln, ANum: aLine, BNum: bLine})
				aLine++
				bLine++
			case diffmatchpatch.DiffDelete:
				script = append(script, Edit{Type: Del, Line: ln, ANum: aLine, BNum: bLine})
				aLine++
			case diffmatchpatch.DiffInsert:
				script = append(script, Edit{Type: Ins, Line: ln, ANum: aLine, BNum: bLine})
				bLine++
			}
		}
	}
	return script
}

// splitKeepEmpty splits s the way DiffLinesToChars produced it: each
// element still carries its trailing newline except a possible final
// partial line, and the trailing empty element a final "\n" would
// otherwise leave behind is dropped.
func splitKeepEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.SplitAfter(s, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// Hunk is a contiguous run of edits plus the surrounding context lines.
type Hunk struct {
	AStart, ALen int
	BStart, BLen int
	Edits        []Edit
}

// Header renders the hunk's "@@ -a,al +b,bl @@" range header.
func (h *Hunk) Header() string {
	return fmt.Sprintf("@@ -%s +%s @@", rangeStr(h.AStart, h.ALen), rangeStr(h.BStart, h.BLen))
}

func rangeStr(start, length int) string {
	if length == 0 && start > 0 {
		start--
	}
	if length == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, length)
}

// DefaultContext is the number of unchanged lines kept around each change,
// matching git's default.
const DefaultContext = 3

// Hunks groups script into hunks, one per maximal run of changes, padding
// each with up to context lines of surrounding equal lines and merging any
// two runs whose context windows would otherwise overlap.
func Hunks(script []Edit, context int) []*Hunk {
	if context < 0 {
		context = DefaultContext
	}

	var changed []int
	for i, e := range script {
		if e.Type != Eql {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	type span struct{ first, last int }
	var spans []span
	cur := span{changed[0], changed[0]}
	for _, idx := range changed[1:] {
		if idx-cur.last <= 2*context {
			cur.last = idx
			continue
		}
		spans = append(spans, cur)
		cur = span{idx, idx}
	}
	spans = append(spans, cur)

	hunks := make([]*Hunk, 0, len(spans))
	for _, sp := range spans {
		start := sp.first - context
		if start < 0 {
			start = 0
		}
		end := sp.last + context
		if end >= len(script) {
			end = len(script) - 1
		}

		h := &Hunk{Edits: append([]Edit(nil), script[start:end+1]...)}
		h.AStart, h.BStart = h.Edits[0].ANum, h.Edits[0].BNum
		for _, e := range h.Edits {
			switch e.Type {
			case Eql:
				h.ALen++
				h.BLen++
			case Del:
				h.ALen++
			case Ins:
				h.BLen++
			}
		}
		hunks = append(hunks, h)
	}
	return hunks
}
