package decode

import (
	"regexp"
	"strings"
)

// Glyphs used by RenderPlain. Fixed-width plain text stand-ins for markup
// the dashboard cannot render.
const (
	headerGlyph    = "■"
	subHeaderGlyph = "▪"
	bulletGlyph    = "→"
	checkedGlyph   = "●"
	uncheckedGlyph = "○"
)

var (
	topHeaderRe   = regexp.MustCompile(`^#\s+(.*)$`)
	subHeaderRe   = regexp.MustCompile(`^#{2,6}\s+(.*)$`)
	checkboxRe    = regexp.MustCompile(`^(\s*)[-*+]\s+\[([ xX])\]\s*(.*)$`)
	bulletRe      = regexp.MustCompile(`^(\s*)[-*+]\s+(.*)$`)
	boldRe        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicStarRe  = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicUnderRe = regexp.MustCompile(`_([^_\n]+)_`)
	tableSepRe    = regexp.MustCompile(`^\s*\|?[\s:|-]+\|?\s*$`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// statusEmoji maps the three status emoji workers emit to plain glyphs.
var statusEmoji = strings.NewReplacer(
	"✅", "✓",
	"❌", "✗",
	"⚠️", "!",
)

// RenderPlain flattens lightweight markup to plain fixed-width display
// text. The transform is total (any input yields some output) but not
// idempotent: run it exactly once per received chunk.
func RenderPlain(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = statusEmoji.Replace(line)

		// Table separator rows carry no content; delete them outright.
		if strings.Contains(line, "|") && tableSepRe.MatchString(line) {
			continue
		}
		if cells := tableCells(line); cells != nil {
			out = append(out, renderInline(collapseTableRow(cells)))
			continue
		}

		switch {
		case topHeaderRe.MatchString(line):
			line = headerGlyph + " " + strings.ToUpper(topHeaderRe.FindStringSubmatch(line)[1])
		case subHeaderRe.MatchString(line):
			line = subHeaderGlyph + " " + subHeaderRe.FindStringSubmatch(line)[1]
		case checkboxRe.MatchString(line):
			m := checkboxRe.FindStringSubmatch(line)
			glyph := uncheckedGlyph
			if m[2] != " " {
				glyph = checkedGlyph
			}
			line = m[1] + glyph + " " + m[3]
		case bulletRe.MatchString(line):
			m := bulletRe.FindStringSubmatch(line)
			line = m[1] + bulletGlyph + " " + m[2]
		}

		out = append(out, renderInline(line))
	}

	joined := strings.Join(out, "\n")
	joined = blankRunRe.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}

// renderInline rewrites inline emphasis: bold spans keep their content in
// corner brackets, italics lose their markup with no substitute.
func renderInline(line string) string {
	line = boldRe.ReplaceAllString(line, "「$1」")
	line = italicStarRe.ReplaceAllString(line, "$1")
	line = italicUnderRe.ReplaceAllString(line, "$1")
	return line
}

// tableCells splits a markup table row into trimmed cells, or nil if the
// line is not a table row.
func tableCells(line string) []string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") || strings.Count(trimmed, "|") < 2 {
		return nil
	}
	trimmed = strings.Trim(trimmed, "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// collapseTableRow renders table cells as key/value text: two columns
// become "key: value", three become "key: value (note)", wider rows join
// everything after the first column with commas.
func collapseTableRow(cells []string) string {
	switch len(cells) {
	case 0:
		return ""
	case 1:
		return cells[0]
	case 2:
		return cells[0] + ": " + cells[1]
	case 3:
		if cells[2] == "" {
			return cells[0] + ": " + cells[1]
		}
		return cells[0] + ": " + cells[1] + " (" + cells[2] + ")"
	default:
		return cells[0] + ": " + strings.Join(cells[1:], ", ")
	}
}

// Preview truncates rendered output to the first n non-blank lines, for
// card views. The full-detail view renders the untruncated transform.
func Preview(s string, n int) string {
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, line)
		if len(kept) == n {
			break
		}
	}
	return strings.Join(kept, "\n")
}
