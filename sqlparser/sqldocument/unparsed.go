package sqldocument

// Unparsed is a raw token captured verbatim, used wherever a component
// needs to reproduce source text exactly (statement preambles, the prepare
// rewriter's reconstructed probe/template text).
type Unparsed struct {
	Type        TokenType
	Start, Stop Pos
	RawValue    string
}

func CreateUnparsed(s Scanner) Unparsed {
	return Unparsed{
		Type:     s.TokenType(),
		Start:    s.Start(),
		Stop:     s.Stop(),
		RawValue: s.Token(),
	}
}
