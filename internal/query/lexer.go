package query

import "strings"

// TokenType identifies the lexical class of a Token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenDot
	TokenColon
	TokenBang
	TokenHash
	TokenQuestion
	TokenStar
	TokenPlus
	TokenIdent
	TokenString
	TokenCapture
	TokenInvalid
)

// Token is a lexical unit of a query source. For TokenString, Value holds the
// unescaped literal; for TokenCapture, the name without the leading '@'; for
// TokenInvalid, a description of the problem.
type Token struct {
	Type   TokenType
	Value  string
	Offset int
	End    int
}

// Lexer scans a query source into tokens. Comments start with ';' and run to
// the end of the line.
type Lexer struct {
	input    string
	position int
	tokens   []Token
}

// NewLexer returns a Lexer for input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize scans the whole input. Scanning stops at the first invalid token,
// which is returned as the last token before TokenEOF.
func (l *Lexer) Tokenize() []Token {
	for l.position < len(l.input) {
		start := l.position
		c := l.input[l.position]
		switch {
		case c == ';':
			for l.position < len(l.input) && l.input[l.position] != '\n' {
				l.position++
			}
		case isSpace(c):
			l.position++
		case c == '(':
			l.single(TokenLParen)
		case c == ')':
			l.single(TokenRParen)
		case c == '[':
			l.single(TokenLBracket)
		case c == ']':
			l.single(TokenRBracket)
		case c == '.':
			l.single(TokenDot)
		case c == ':':
			l.single(TokenColon)
		case c == '!':
			l.single(TokenBang)
		case c == '#':
			l.single(TokenHash)
		case c == '?':
			l.single(TokenQuestion)
		case c == '*':
			l.single(TokenStar)
		case c == '+':
			l.single(TokenPlus)
		case c == '"':
			if !l.lexString() {
				l.addToken(TokenInvalid, "unterminated string", start, len(l.input))
				return l.finish()
			}
		case c == '@':
			l.position++
			name := l.scanIdent()
			if name == "" {
				l.addToken(TokenInvalid, "expected capture name after '@'", start, l.position)
				return l.finish()
			}
			l.addToken(TokenCapture, name, start, l.position)
		case isIdentStart(c):
			name := l.scanIdent()
			l.addToken(TokenIdent, name, start, l.position)
		default:
			l.addToken(TokenInvalid, "unexpected character "+quoteByte(c), start, start+1)
			return l.finish()
		}
	}
	return l.finish()
}

func (l *Lexer) finish() []Token {
	l.addToken(TokenEOF, "", len(l.input), len(l.input))
	return l.tokens
}

func (l *Lexer) single(t TokenType) {
	l.addToken(t, l.input[l.position:l.position+1], l.position, l.position+1)
	l.position++
}

func (l *Lexer) scanIdent() string {
	start := l.position
	for l.position < len(l.input) && isIdentChar(l.input[l.position]) {
		l.position++
	}
	return l.input[start:l.position]
}

// lexString scans a double-quoted literal. Recognised escapes are \n, \r,
// \t, \0, \\ and \"; any other escaped character stands for itself.
func (l *Lexer) lexString() bool {
	start := l.position
	l.position++
	var sb strings.Builder
	for l.position < len(l.input) {
		c := l.input[l.position]
		switch c {
		case '"':
			l.position++
			l.addToken(TokenString, sb.String(), start, l.position)
			return true
		case '\\':
			if l.position+1 >= len(l.input) {
				return false
			}
			l.position++
			switch e := l.input[l.position]; e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '0':
				sb.WriteByte(0)
			default:
				sb.WriteByte(e)
			}
		default:
			sb.WriteByte(c)
		}
		l.position++
	}
	return false
}

func (l *Lexer) addToken(t TokenType, value string, start, end int) {
	l.tokens = append(l.tokens, Token{Type: t, Value: value, Offset: start, End: end})
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.' || c == '-'
}

func quoteByte(c byte) string {
	return "'" + string(rune(c)) + "'"
}
