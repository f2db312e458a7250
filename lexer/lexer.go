package lexer

import (
	"fmt"
	"unicode"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Structural
	TokenLParen TokenType = iota // (
	TokenRParen                  // )
	TokenEquals                  // = (assignment)

	// Operators
	TokenPlus  // +
	TokenMinus // -
	TokenStar  // *
	TokenSlash // /
	TokenEq    // ==
	TokenNeq   // !=
	TokenLt    // <
	TokenGt    // >
	TokenLte   // <=
	TokenGte   // >=
	TokenAnd   // & or "and"
	TokenOr    // | or "or"

	// Literals
	TokenInt    // integer literal
	TokenFloat  // float literal
	TokenString // "string literal" or 'string literal'

	// Identifiers
	TokenIdent         // plain identifier (column name)
	TokenBacktickIdent // `identifier with spaces`

	// End
	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenLParen: "(", TokenRParen: ")", TokenEquals: "=",
	TokenPlus: "+", TokenMinus: "-", TokenStar: "*", TokenSlash: "/",
	TokenEq: "==", TokenNeq: "!=", TokenLt: "<", TokenGt: ">", TokenLte: "<=", TokenGte: ">=",
	TokenAnd: "and", TokenOr: "or",
	TokenInt: "INT", TokenFloat: "FLOAT", TokenString: "STRING",
	TokenIdent: "IDENT", TokenBacktickIdent: "BACKTICK_IDENT", TokenEOF: "EOF",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// Token represents a single lexical token.
type Token struct {
	Type TokenType
	Val  string
	Pos  int // rune offset in original input
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Val, t.Pos)
}

var keywords = map[string]TokenType{
	"and": TokenAnd,
	"or":  TokenOr,
}

// Lex tokenizes the input string into a slice of Tokens.
func Lex(input string) ([]Token, error) {
	var tokens []Token
	runes := []rune(input)
	i := 0

	for i < len(runes) {
		ch := runes[i]

		// Skip whitespace
		if unicode.IsSpace(ch) {
			i++
			continue
		}

		pos := i
		switch ch {
		case '(':
			tokens = append(tokens, Token{TokenLParen, "(", pos})
			i++
			continue
		case ')':
			tokens = append(tokens, Token{TokenRParen, ")", pos})
			i++
			continue
		case '&':
			tokens = append(tokens, Token{TokenAnd, "&", pos})
			i++
			continue
		case '|':
			tokens = append(tokens, Token{TokenOr, "|", pos})
			i++
			continue
		case '+':
			tokens = append(tokens, Token{TokenPlus, "+", pos})
			i++
			continue
		case '-':
			// Negative number literal when in operand position,
			// minus operator otherwise.
			if i+1 < len(runes) && unicode.IsDigit(runes[i+1]) && isNegativeContext(tokens) {
				tok, newI, err := lexNumber(runes, i)
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, tok)
				i = newI
				continue
			}
			tokens = append(tokens, Token{TokenMinus, "-", pos})
			i++
			continue
		case '*':
			tokens = append(tokens, Token{TokenStar, "*", pos})
			i++
			continue
		case '/':
			tokens = append(tokens, Token{TokenSlash, "/", pos})
			i++
			continue
		case '=':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, Token{TokenEq, "==", pos})
				i += 2
			} else {
				tokens = append(tokens, Token{TokenEquals, "=", pos})
				i++
			}
			continue
		case '!':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, Token{TokenNeq, "!=", pos})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected character '!' at position %d (did you mean '!='?)", pos)
			}
			continue
		case '<':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, Token{TokenLte, "<=", pos})
				i += 2
			} else {
				tokens = append(tokens, Token{TokenLt, "<", pos})
				i++
			}
			continue
		case '>':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, Token{TokenGte, ">=", pos})
				i += 2
			} else {
				tokens = append(tokens, Token{TokenGt, ">", pos})
				i++
			}
			continue
		}

		// String literal, double or single quoted
		if ch == '"' || ch == '\'' {
			tok, newI, err := lexString(runes, i, ch)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		// Backtick identifier
		if ch == '`' {
			tok, newI, err := lexBacktick(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		// Number
		if unicode.IsDigit(ch) {
			tok, newI, err := lexNumber(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		// Identifier or keyword
		if isIdentStart(ch) {
			tok, newI := lexIdent(runes, i)
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		return nil, fmt.Errorf("unexpected character %q at position %d", ch, pos)
	}

	tokens = append(tokens, Token{TokenEOF, "", len(runes)})
	return tokens, nil
}

func isNegativeContext(tokens []Token) bool {
	if len(tokens) == 0 {
		return true
	}
	last := tokens[len(tokens)-1].Type
	switch last {
	case TokenLParen, TokenEquals,
		TokenPlus, TokenMinus, TokenStar, TokenSlash,
		TokenEq, TokenNeq, TokenLt, TokenGt, TokenLte, TokenGte,
		TokenAnd, TokenOr:
		return true
	}
	return false
}

func lexString(runes []rune, start int, quote rune) (Token, int, error) {
	i := start + 1 // skip opening quote
	var sb []rune
	for i < len(runes) {
		if runes[i] == '\\' && i+1 < len(runes) {
			switch runes[i+1] {
			case quote:
				sb = append(sb, quote)
			case '\\':
				sb = append(sb, '\\')
			case 'n':
				sb = append(sb, '\n')
			case 't':
				sb = append(sb, '\t')
			default:
				sb = append(sb, '\\', runes[i+1])
			}
			i += 2
			continue
		}
		if runes[i] == quote {
			return Token{TokenString, string(sb), start}, i + 1, nil
		}
		sb = append(sb, runes[i])
		i++
	}
	return Token{}, 0, fmt.Errorf("unterminated string starting at position %d", start)
}

func lexBacktick(runes []rune, start int) (Token, int, error) {
	i := start + 1
	var sb []rune
	for i < len(runes) {
		if runes[i] == '`' {
			return Token{TokenBacktickIdent, string(sb), start}, i + 1, nil
		}
		sb = append(sb, runes[i])
		i++
	}
	return Token{}, 0, fmt.Errorf("unterminated backtick identifier starting at position %d", start)
}

func lexNumber(runes []rune, start int) (Token, int, error) {
	i := start
	isFloat := false

	if i < len(runes) && runes[i] == '-' {
		i++
	}

	for i < len(runes) && unicode.IsDigit(runes[i]) {
		i++
	}

	if i < len(runes) && runes[i] == '.' {
		if i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
			isFloat = true
			i++
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
		}
	}

	val := string(runes[start:i])
	if isFloat {
		return Token{TokenFloat, val, start}, i, nil
	}
	return Token{TokenInt, val, start}, i, nil
}

func lexIdent(runes []rune, start int) (Token, int) {
	i := start
	for i < len(runes) && isIdentPart(runes[i]) {
		i++
	}
	val := string(runes[start:i])

	if tt, ok := keywords[val]; ok {
		return Token{tt, val, start}, i
	}
	return Token{TokenIdent, val, start}, i
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}
