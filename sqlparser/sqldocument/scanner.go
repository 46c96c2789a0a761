package sqldocument

// Scanner defines the interface for lexical scanning of SQL source code.
//
// CreateUnparsed reads the current token through this interface into an
// Unparsed value; the statement splitter, directive parser, and forest
// parser consume slices of those Unparsed values rather than a Scanner.
type Scanner interface {
	// TokenType returns the type of the current token.
	TokenType() TokenType

	// Token returns the text of the current token.
	Token() string

	// TokenLower returns the current token text converted to lowercase.
	TokenLower() string

	// ReservedWord returns the lowercase keyword text if the current token
	// is a ReservedWordToken, or an empty string otherwise.
	ReservedWord() string

	// Start returns the position where the current token begins.
	Start() Pos

	// Stop returns the position where the current token ends.
	Stop() Pos

	// NextToken scans the next token and advances the scanner's position.
	NextToken() TokenType

	// NextNonWhitespaceToken advances to the next non-whitespace token.
	NextNonWhitespaceToken() TokenType

	// NextNonWhitespaceCommentToken advances past whitespace and comments.
	NextNonWhitespaceCommentToken() TokenType

	// SkipWhitespace advances past any whitespace tokens.
	SkipWhitespace()

	// SkipWhitespaceComments advances past whitespace and comment tokens.
	SkipWhitespaceComments()

	SetInput([]byte)
	SetFile(FileRef)
}
