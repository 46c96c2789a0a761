package pgsql

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/smasher164/xid"
	"github.com/vippsas/piqued/sqlparser/sqldocument"
)

// Scanner is a lexical scanner for PostgreSQL.
//
// Unlike a scanner that builds a full token stream up front, Scanner is a
// cursor into the input buffer that callers drive one NextToken() at a time.
// It handles PostgreSQL-specific constructs: string literals ('...' with ''
// escape, E'...' with backslash escapes, U&'...' unicode strings),
// dollar-quoted strings ($$...$$, $tag$...$tag$), quoted identifiers
// ("..."), bit/hex string literals, single-line (--) and multi-line (/* */)
// comments, the full PostgreSQL keyword set, positional parameters ($1,
// $2, ...), and `:name` template placeholders.
type Scanner struct {
	sqldocument.TokenScanner
}

var _ sqldocument.Scanner = (*Scanner)(nil)

// NewScanner creates a new Scanner for the given PostgreSQL source file and
// input string. The scanner is positioned before the first token; call
// NextToken() to advance.
func NewScanner(file sqldocument.FileRef, input string) *Scanner {
	s := &Scanner{}
	s.SetFile(file)
	s.SetInput([]byte(input))
	s.SetScanFunc(s.nextToken)
	return s
}

// nextToken performs the actual tokenization for PostgreSQL syntax. It is
// installed as TokenScanner's raw scan function and runs after
// TokenScanner.NextToken has already reset per-token bookkeeping.
func (s *Scanner) nextToken() sqldocument.TokenType {
	r, w := s.TokenRune(0)

	switch {
	case r == utf8.RuneError && w == 0:
		return sqldocument.EOFToken
	case r == utf8.RuneError && w == -1:
		s.IncCurIndex(1)
		return sqldocument.NonUTF8ErrorToken
	case r == '(':
		s.IncCurIndex(w)
		return sqldocument.LeftParenToken
	case r == ')':
		s.IncCurIndex(w)
		return sqldocument.RightParenToken
	case r == ';':
		s.IncCurIndex(w)
		return sqldocument.SemicolonToken
	case r == ',':
		s.IncCurIndex(w)
		return sqldocument.CommaToken
	case r == '\'':
		s.IncCurIndex(w)
		return s.scanStringLiteral()
	case r == '"':
		s.IncCurIndex(w)
		return s.scanQuotedIdentifier()
	case r == '$':
		return s.scanDollarToken()
	case r == ':':
		return s.scanColonToken()
	case r == '.':
		if r2, _ := s.TokenRune(w); r2 >= '0' && r2 <= '9' {
			return s.scanNumber()
		}
		s.IncCurIndex(w)
		return sqldocument.DotToken
	case r >= '0' && r <= '9':
		return s.scanNumber()
	case unicode.IsSpace(r):
		return s.ScanWhitespace()
	case r == '/':
		if r2, w2 := s.TokenRune(w); r2 == '*' {
			s.IncCurIndex(w + w2)
			return s.ScanMultilineComment()
		}
		return s.scanOperator()
	case r == '-':
		if r2, w2 := s.TokenRune(w); r2 == '-' {
			s.IncCurIndex(w + w2)
			return s.ScanSinglelineComment()
		}
		return s.scanOperator()
	case r == 'E' || r == 'e':
		if r2, w2 := s.TokenRune(w); r2 == '\'' {
			s.IncCurIndex(w + w2)
			return s.scanEscapeStringLiteral()
		}
		return s.scanIdentifierFrom(w)
	case r == 'B' || r == 'b':
		if r2, w2 := s.TokenRune(w); r2 == '\'' {
			s.IncCurIndex(w + w2)
			return s.scanBitStringLiteral()
		}
		return s.scanIdentifierFrom(w)
	case r == 'X' || r == 'x':
		if r2, w2 := s.TokenRune(w); r2 == '\'' {
			s.IncCurIndex(w + w2)
			return s.scanHexStringLiteral()
		}
		return s.scanIdentifierFrom(w)
	case r == 'U' || r == 'u':
		if r2, w2 := s.TokenRune(w); r2 == '&' {
			if r3, w3 := s.TokenRune(w + w2); r3 == '\'' {
				s.IncCurIndex(w + w2 + w3)
				return s.scanStringLiteral()
			} else if r3 == '"' {
				s.IncCurIndex(w + w2 + w3)
				return s.scanQuotedIdentifier()
			}
		}
		return s.scanIdentifierFrom(w)
	case xid.Start(r) || r == '_':
		return s.scanIdentifierFrom(w)
	}

	return s.scanOperator()
}

// operatorChars are the characters that can appear in a PostgreSQL
// multi-character operator. `*` is included here too - the forest parser
// is responsible for reclassifying a lone `*` as a wildcard when it isn't
// preceded by an expression.
const operatorChars = "+-*/<>=~!@#%^&|`?"

// scanOperator consumes the longest run of operator characters starting at
// the cursor and returns it as a single OperatorToken. The forest parser's
// precedence table keys off the lowercased token text, so it doesn't
// matter here whether the run is one of the recognized lexemes (->, ->>,
// etc.) or something exotic a user-defined operator might produce. `::` is
// produced by scanColonToken, since ':' is not an operator character.
func (s *Scanner) scanOperator() sqldocument.TokenType {
	chars := s.TokenChar()
	i := 0
	for i < len(chars) && strings.ContainsRune(operatorChars, rune(chars[i])) {
		i++
	}
	if i == 0 {
		_, w := utf8.DecodeRuneInString(chars)
		if w < 1 {
			w = 1
		}
		s.IncCurIndex(w)
		return sqldocument.OtherToken
	}
	s.IncCurIndex(i)
	return sqldocument.OperatorToken
}

// scanColonToken disambiguates `:name` placeholders from `::` type casts
// (the latter is returned as a single OperatorToken) and a bare `:`.
func (s *Scanner) scanColonToken() sqldocument.TokenType {
	r2, w2 := s.TokenRune(1)
	if r2 == ':' {
		s.IncCurIndex(1 + w2)
		return sqldocument.OperatorToken
	}
	if xid.Start(r2) || r2 == '_' {
		s.IncCurIndex(1 + w2)
		chars := s.TokenChar()
		for i := 0; i < len(chars); {
			r, w := utf8.DecodeRuneInString(chars[i:])
			if !(xid.Continue(r) || r == '$') {
				s.IncCurIndex(i)
				return sqldocument.PlaceholderToken
			}
			i += w
		}
		s.SetCurIndex()
		return sqldocument.PlaceholderToken
	}
	s.IncCurIndex(1)
	return sqldocument.ColonToken
}

// scanStringLiteral scans a standard SQL string literal ('...') with ''
// as the escape sequence for a single quote.
func (s *Scanner) scanStringLiteral() sqldocument.TokenType {
	chars := s.TokenChar()
	for i := 0; i < len(chars); {
		r, w := utf8.DecodeRuneInString(chars[i:])
		if r == '\n' {
			s.BumpLine(i)
		}
		if r == '\'' {
			if r2, w2 := utf8.DecodeRuneInString(chars[i+w:]); r2 == '\'' {
				i += w + w2
				continue
			}
			s.IncCurIndex(i + w)
			return StringLiteralToken
		}
		i += w
	}
	s.SetCurIndex()
	return UnterminatedStringLiteralErrorToken
}

// scanEscapeStringLiteral scans an E'...' string with backslash escapes.
func (s *Scanner) scanEscapeStringLiteral() sqldocument.TokenType {
	chars := s.TokenChar()
	escaped := false
	for i := 0; i < len(chars); {
		r, w := utf8.DecodeRuneInString(chars[i:])
		if escaped {
			escaped = false
			i += w
			continue
		}
		if r == '\n' {
			s.BumpLine(i)
		}
		if r == '\\' {
			escaped = true
			i += w
			continue
		}
		if r == '\'' {
			s.IncCurIndex(i + w)
			return StringLiteralToken
		}
		i += w
	}
	s.SetCurIndex()
	return UnterminatedStringLiteralErrorToken
}

func (s *Scanner) scanBitStringLiteral() sqldocument.TokenType {
	return s.scanSimpleQuoted(BitStringLiteralToken)
}

func (s *Scanner) scanHexStringLiteral() sqldocument.TokenType {
	return s.scanSimpleQuoted(HexStringLiteralToken)
}

func (s *Scanner) scanSimpleQuoted(ok sqldocument.TokenType) sqldocument.TokenType {
	chars := s.TokenChar()
	for i := 0; i < len(chars); {
		r, w := utf8.DecodeRuneInString(chars[i:])
		if r == '\'' {
			s.IncCurIndex(i + w)
			return ok
		}
		i += w
	}
	s.SetCurIndex()
	return UnterminatedStringLiteralErrorToken
}

// scanQuotedIdentifier scans a "..." quoted identifier, "" being the
// escape for an embedded double quote.
func (s *Scanner) scanQuotedIdentifier() sqldocument.TokenType {
	chars := s.TokenChar()
	for i := 0; i < len(chars); {
		r, w := utf8.DecodeRuneInString(chars[i:])
		if r == '\n' {
			s.BumpLine(i)
		}
		if r == '"' {
			if r2, w2 := utf8.DecodeRuneInString(chars[i+w:]); r2 == '"' {
				i += w + w2
				continue
			}
			s.IncCurIndex(i + w)
			return sqldocument.QuotedIdentifierToken
		}
		i += w
	}
	s.SetCurIndex()
	return UnterminatedQuotedIdentifierErrorToken
}

// scanDollarToken scans either a dollar-quoted string or a positional
// parameter, both of which start with '$'.
func (s *Scanner) scanDollarToken() sqldocument.TokenType {
	if r2, _ := s.TokenRune(1); r2 >= '0' && r2 <= '9' {
		s.IncCurIndex(1)
		chars := s.TokenChar()
		for i := 0; i < len(chars); {
			r, w := utf8.DecodeRuneInString(chars[i:])
			if r < '0' || r > '9' {
				s.IncCurIndex(i)
				return PositionalParameterToken
			}
			i += w
		}
		s.SetCurIndex()
		return PositionalParameterToken
	}

	s.IncCurIndex(1)
	chars := s.TokenChar()
	tagEnd := -1
	for i := 0; i < len(chars); {
		r, w := utf8.DecodeRuneInString(chars[i:])
		if r == '$' {
			tagEnd = i
			break
		}
		if !(xid.Continue(r) || r == '_') {
			// Not a valid dollar-quote tag character; treat the '$'
			// already consumed as an opaque token rather than failing.
			return sqldocument.OtherToken
		}
		i += w
	}
	if tagEnd < 0 {
		s.SetCurIndex()
		return UnterminatedStringLiteralErrorToken
	}

	tag := chars[:tagEnd]
	endTag := "$" + tag + "$"
	s.IncCurIndex(tagEnd + 1)

	content := s.TokenChar()
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			s.BumpLine(i)
		}
		if strings.HasPrefix(content[i:], endTag) {
			s.IncCurIndex(i + len(endTag))
			return DollarQuotedStringToken
		}
	}
	s.SetCurIndex()
	return UnterminatedStringLiteralErrorToken
}

// scanIdentifierFrom continues scanning an identifier whose first rune
// (consumed bytes wide) has already been matched by the caller's switch,
// and classifies the result.
func (s *Scanner) scanIdentifierFrom(consumed int) sqldocument.TokenType {
	s.IncCurIndex(consumed)
	chars := s.TokenChar()
	for i := 0; i < len(chars); {
		r, w := utf8.DecodeRuneInString(chars[i:])
		if !(xid.Continue(r) || r == '$') {
			s.IncCurIndex(i)
			return s.classifyIdentifier()
		}
		i += w
	}
	s.SetCurIndex()
	return s.classifyIdentifier()
}

// classifyIdentifier checks whether the current token is a recognized SQL
// keyword; see IsKeyword for why this is broader than PostgreSQL's own
// "reserved word" notion.
func (s *Scanner) classifyIdentifier() sqldocument.TokenType {
	word := strings.ToLower(s.Token())
	if IsKeyword(word) {
		s.SetReservedWord(word)
		return sqldocument.ReservedWordToken
	}
	return sqldocument.UnquotedIdentifierToken
}

var numberRegexp = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

func (s *Scanner) scanNumber() sqldocument.TokenType {
	loc := numberRegexp.FindStringIndex(s.TokenChar())
	if loc == nil {
		// Unreachable: every call site already confirmed a leading digit
		// or a '.' followed by a digit.
		s.IncCurIndex(1)
		return sqldocument.OtherToken
	}
	s.IncCurIndex(loc[1])
	return sqldocument.NumberToken
}
