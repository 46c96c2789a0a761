package sqldocument

// TokenType represents the type of a lexical token.
// Common tokens live in the range below 1000; dialect-specific tokens use
// ranges starting at 1000, 2000, etc. Only the PostgreSQL range is actually
// allocated by this module; the original T-SQL range is unused here.
type TokenType int

// PGSQLTokenStart is the start of the PostgreSQL-specific token range.
const PGSQLTokenStart TokenType = 2000

// Common tokens shared across all dialects that could embed TokenScanner.
const (
	EOFToken TokenType = iota + 1
	WhitespaceToken
	LeftParenToken
	RightParenToken
	SemicolonToken
	CommaToken
	DotToken

	NumberToken

	MultilineCommentToken
	SinglelineCommentToken

	// ReservedWordToken marks any token classified as a recognized SQL
	// keyword (see pgsql.AllKeywords) - not only the subset PostgreSQL
	// itself treats as "reserved" for identifier-quoting purposes.
	ReservedWordToken
	QuotedIdentifierToken
	UnquotedIdentifierToken

	// OperatorToken covers every operator-shaped lexeme (including the
	// single-character ones): =, <, >, +, -, *, /, %, ^, ::, ->, etc.
	// The forest parser looks up precedence by the token's lowercased text.
	OperatorToken

	// ColonToken is a bare ':'. In the PostgreSQL scanner a ':' followed by
	// identifier characters forms a PlaceholderToken and "::" forms an
	// OperatorToken; any other ':' is returned as a ColonToken.
	ColonToken

	// PlaceholderToken is a `:name` template placeholder.
	PlaceholderToken

	OtherToken

	UnterminatedStringErrorToken
	UnterminatedIdentifierErrorToken
	NonUTF8ErrorToken
)
