// Package directive parses the `-- @name`, `-- @params`, `-- @xtemplate`
// comment directives from a statement's preamble.
package directive

import (
	"fmt"
	"strings"

	"github.com/vippsas/piqued/sqlparser/sqldocument"
)

// Template is a registered `@xtemplate` substitution: NAME may appear as
// `:NAME` in the statement body, substituted by Example at probe time.
type Template struct {
	Name    string
	Example string
}

// Directives is the parsed preamble of one statement.
type Directives struct {
	Name       string
	HasName    bool
	Params     []string
	HasParams  bool
	Templates  []Template
	Comment    string
}

// Parse reads a statement's leading comment tokens and extracts its
// directives. fallbackIndex supplies the 0-based statement index used for
// the name when no `@name` directive is present.
func Parse(preamble []sqldocument.Unparsed, fallbackIndex int) Directives {
	d := Directives{}
	var commentLines []string

	for _, tok := range preamble {
		switch tok.Type {
		case sqldocument.SinglelineCommentToken, sqldocument.MultilineCommentToken:
			for _, line := range splitCommentLines(tok.RawValue, tok.Type) {
				commentLines = append(commentLines, line)
			}
		}
	}

	var freeform []string
	for _, line := range commentLines {
		stripped, ok := stripDirectivePrefix(line)
		if !ok {
			freeform = append(freeform, line)
			continue
		}
		fields := strings.Fields(stripped)
		if len(fields) == 0 {
			freeform = append(freeform, line)
			continue
		}
		switch fields[0] {
		case "@name":
			if len(fields) >= 2 {
				d.Name = fields[1]
				d.HasName = true
			}
		case "@params":
			d.Params = append([]string{}, fields[1:]...)
			d.HasParams = true
		case "@xtemplate":
			if len(fields) >= 3 {
				d.Templates = append(d.Templates, Template{Name: fields[1], Example: strings.Join(fields[2:], " ")})
			}
		default:
			freeform = append(freeform, line)
		}
	}

	if !d.HasName {
		d.Name = fmt.Sprintf("query_%d", fallbackIndex)
	}
	d.Comment = strings.Join(freeform, "\n")
	return d
}

// splitCommentLines breaks a raw comment token's text into individual
// logical lines, stripping the comment delimiters themselves (`--`, `/*`,
// `*/`) so each returned line is candidate directive text.
func splitCommentLines(raw string, tt sqldocument.TokenType) []string {
	switch tt {
	case sqldocument.SinglelineCommentToken:
		line := strings.TrimPrefix(raw, "--")
		return []string{line}
	case sqldocument.MultilineCommentToken:
		body := strings.TrimSuffix(strings.TrimPrefix(raw, "/*"), "*/")
		return strings.Split(body, "\n")
	}
	return nil
}

// stripDirectivePrefix implements the bit-exact prefix rule: one leading
// "-- " or one leading "* ", trimming surrounding tabs/spaces first, is
// removed before the directive keyword is recognized. A line that doesn't
// carry one of these prefixes (after trimming) still gets its leading
// whitespace stripped, but is only treated as a directive if fields[0] is
// recognized by the caller.
func stripDirectivePrefix(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "-- ") {
		trimmed = strings.TrimPrefix(trimmed, "-- ")
	} else if strings.HasPrefix(trimmed, "* ") {
		trimmed = strings.TrimPrefix(trimmed, "* ")
	}
	if strings.HasPrefix(trimmed, "@") {
		return trimmed, true
	}
	return trimmed, false
}
