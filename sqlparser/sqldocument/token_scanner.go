package sqldocument

import (
	"strings"
	"unicode/utf8"
)

// TokenScanner is a cursor into an input buffer, meant to be embedded by a
// dialect-specific scanner (see pgsql.Scanner). It tracks the current
// token's start/stop byte offsets and line/column, and exposes small
// utilities the dialect scanner's rune-by-rune matching needs.
//
// A dialect scanner supplies the actual tokenization logic via SetScanFunc;
// TokenScanner.NextToken wraps that function with the start/stop bookkeeping
// so the dialect scanner itself never has to touch position tracking.
type TokenScanner struct {
	input string
	file  FileRef

	startIndex int
	curIndex   int
	tokenType  TokenType

	startLine        int
	stopLine         int
	indexAtStartLine int
	indexAtStopLine  int

	reservedWord string

	scan func() TokenType
}

var _ Scanner = (*TokenScanner)(nil)

// SetScanFunc installs the dialect-specific raw tokenizer. Must be called
// once, from the embedding scanner's constructor, before NextToken is used.
func (s *TokenScanner) SetScanFunc(scan func() TokenType) {
	s.scan = scan
}

func (s *TokenScanner) SetInput(input []byte) {
	s.input = string(input)
	s.startIndex = 0
	s.curIndex = 0
}

func (s *TokenScanner) SetFile(file FileRef) {
	s.file = file
}

func (s *TokenScanner) TokenType() TokenType { return s.tokenType }

// SetToken overrides the classification of the token that was just scanned;
// used by dialect scanners after a raw scan to reclassify e.g. an
// identifier as a reserved word.
func (s *TokenScanner) SetToken(tt TokenType) { s.tokenType = tt }

func (s *TokenScanner) Token() string {
	return s.input[s.startIndex:s.curIndex]
}

func (s *TokenScanner) TokenLower() string {
	return strings.ToLower(s.Token())
}

func (s *TokenScanner) SetReservedWord(word string) { s.reservedWord = word }

func (s *TokenScanner) ReservedWord() string { return s.reservedWord }

func (s *TokenScanner) Start() Pos {
	return Pos{
		File:   s.file,
		Line:   s.startLine + 1,
		Col:    s.startIndex - s.indexAtStartLine + 1,
		Offset: s.startIndex,
	}
}

func (s *TokenScanner) Stop() Pos {
	return Pos{
		File:   s.file,
		Line:   s.stopLine + 1,
		Col:    s.curIndex - s.indexAtStopLine + 1,
		Offset: s.curIndex,
	}
}

// IncIndexes resets per-token bookkeeping to the current cursor position;
// called at the start of every raw scan.
func (s *TokenScanner) IncIndexes() {
	s.startIndex = s.curIndex
	s.reservedWord = ""
	s.startLine = s.stopLine
	s.indexAtStartLine = s.indexAtStopLine
}

// TokenRune returns the rune starting `offset` bytes past the cursor,
// along with its width. A zero-width, utf8.RuneError result means EOF.
func (s *TokenScanner) TokenRune(offset int) (rune, int) {
	return utf8.DecodeRuneInString(s.input[s.curIndex+offset:])
}

// TokenChar returns the remaining input from the cursor onward.
func (s *TokenScanner) TokenChar() string {
	return s.input[s.curIndex:]
}

// IncCurIndex advances the cursor by n bytes.
func (s *TokenScanner) IncCurIndex(n int) {
	s.curIndex += n
}

// SetCurIndex moves the cursor to end of input; used when a scan reaches
// EOF without finding a terminator (unterminated literal).
func (s *TokenScanner) SetCurIndex() {
	s.curIndex = len(s.input)
}

// BumpLine records that a newline was consumed `offset` bytes past the
// cursor (the newline itself is 1 byte; offset points at it).
func (s *TokenScanner) BumpLine(offset int) {
	s.stopLine++
	s.indexAtStopLine = s.curIndex + offset + 1
}

// ScanWhitespace consumes a run of whitespace starting at the cursor.
func (s *TokenScanner) ScanWhitespace() TokenType {
	chars := s.TokenChar()
	for i := 0; i < len(chars); {
		r, w := utf8.DecodeRuneInString(chars[i:])
		if r == '\n' {
			s.BumpLine(i)
		}
		if !isSpace(r) {
			s.IncCurIndex(i)
			return WhitespaceToken
		}
		i += w
	}
	s.SetCurIndex()
	return WhitespaceToken
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// ScanMultilineComment consumes a /* ... */ comment, supporting nesting as
// PostgreSQL does.
func (s *TokenScanner) ScanMultilineComment() TokenType {
	depth := 1
	chars := s.TokenChar()
	for i := 0; i < len(chars); {
		r, w := utf8.DecodeRuneInString(chars[i:])
		if r == '\n' {
			s.BumpLine(i)
		}
		if strings.HasPrefix(chars[i:], "/*") {
			depth++
			i += 2
			continue
		}
		if strings.HasPrefix(chars[i:], "*/") {
			depth--
			i += 2
			if depth == 0 {
				s.IncCurIndex(i)
				return MultilineCommentToken
			}
			continue
		}
		i += w
	}
	s.SetCurIndex()
	return MultilineCommentToken
}

// ScanSinglelineComment consumes a -- comment through end of line.
func (s *TokenScanner) ScanSinglelineComment() TokenType {
	chars := s.TokenChar()
	for i := 0; i < len(chars); {
		r, w := utf8.DecodeRuneInString(chars[i:])
		if r == '\n' {
			s.IncCurIndex(i)
			return SinglelineCommentToken
		}
		i += w
	}
	s.SetCurIndex()
	return SinglelineCommentToken
}

// NextToken scans the next token, delegating the raw classification to the
// dialect scanner's scan function.
func (s *TokenScanner) NextToken() TokenType {
	s.IncIndexes()
	if s.scan == nil {
		panic("sqldocument: TokenScanner.SetScanFunc was never called")
	}
	s.tokenType = s.scan()
	return s.tokenType
}

func (s *TokenScanner) SkipWhitespace() {
	for s.tokenType == WhitespaceToken {
		s.NextToken()
	}
}

func (s *TokenScanner) NextNonWhitespaceToken() TokenType {
	s.NextToken()
	s.SkipWhitespace()
	return s.tokenType
}

func (s *TokenScanner) SkipWhitespaceComments() {
	for s.tokenType == WhitespaceToken || s.tokenType == MultilineCommentToken || s.tokenType == SinglelineCommentToken {
		s.NextToken()
	}
}

func (s *TokenScanner) NextNonWhitespaceCommentToken() TokenType {
	s.NextToken()
	s.SkipWhitespaceComments()
	return s.tokenType
}
