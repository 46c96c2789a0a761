package pgsql

import "github.com/vippsas/piqued/sqlparser/sqldocument"

// PostgreSQL specific tokens, allocated starting at sqldocument.PGSQLTokenStart
// so a hypothetical second dialect package can't collide with these.
const (
	// StringLiteralToken covers '...' literals, E'...' escape literals, and
	// U&'...' unicode literals - the scanner records which quoting form was
	// used via Unparsed.RawValue; the forest parser doesn't need to care.
	StringLiteralToken sqldocument.TokenType = iota + sqldocument.PGSQLTokenStart

	// DollarQuotedStringToken is a $$...$$ or $tag$...$tag$ string.
	DollarQuotedStringToken

	// BitStringLiteralToken is a B'...' bit string literal.
	BitStringLiteralToken

	// HexStringLiteralToken is an X'...' hex string literal.
	HexStringLiteralToken

	// PositionalParameterToken is a $1, $2, ... positional parameter.
	PositionalParameterToken

	// Error tokens.
	UnterminatedStringLiteralErrorToken
	UnterminatedQuotedIdentifierErrorToken
)
