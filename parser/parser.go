package parser

import (
	"fmt"
	"strconv"

	"github.com/tabwell/tq/ast"
	"github.com/tabwell/tq/lexer"
)

// Parser converts a token stream into an expression AST.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// Parse parses a full expression string into an AST.
func Parse(input string) (ast.Expr, error) {
	tokens, err := lexer.Lex(input)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}
	p := &Parser{tokens: tokens, pos: 0}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != lexer.TokenEOF {
		tok := p.peek()
		return nil, fmt.Errorf("unexpected token %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}
	return expr, nil
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, fmt.Errorf("expected %s, got %s (%q) at position %d", tt, tok.Type, tok.Val, tok.Pos)
	}
	return tok, nil
}

// Precedence: or < and < comparison < additive < multiplicative < unary.

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.TokenAnd {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

// parseComparison collects a run of comparison operators so that a
// chain like "a < b < c" desugars to "(a < b) and (b < c)" with the
// shared operand evaluated in both pairs.
func (p *Parser) parseComparison() (ast.Expr, error) {
	first, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	var ops []string
	operands := []ast.Expr{first}
	for {
		op, ok := comparisonOp(p.peek().Type)
		if !ok {
			break
		}
		p.advance()
		next, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		operands = append(operands, next)
	}

	if len(ops) == 0 {
		return first, nil
	}

	var chain ast.Expr
	for i, op := range ops {
		pair := &ast.BinaryExpr{Op: op, Left: operands[i], Right: operands[i+1]}
		if chain == nil {
			chain = pair
		} else {
			chain = &ast.BinaryExpr{Op: "and", Left: chain, Right: pair}
		}
	}
	return chain, nil
}

func comparisonOp(tt lexer.TokenType) (string, bool) {
	switch tt {
	case lexer.TokenEq:
		return "==", true
	case lexer.TokenNeq:
		return "!=", true
	case lexer.TokenLt:
		return "<", true
	case lexer.TokenGt:
		return ">", true
	case lexer.TokenLte:
		return "<=", true
	case lexer.TokenGte:
		return ">=", true
	}
	return "", false
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		tt := p.peek().Type
		if tt != lexer.TokenPlus && tt != lexer.TokenMinus {
			break
		}
		op := p.advance().Val
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tt := p.peek().Type
		if tt != lexer.TokenStar && tt != lexer.TokenSlash {
			break
		}
		op := p.advance().Val
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.peek().Type == lexer.TokenMinus {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: "-", Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Type {
	case lexer.TokenInt:
		p.advance()
		v, err := strconv.ParseInt(tok.Val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", tok.Val, err)
		}
		return &ast.LiteralExpr{Kind: "int", Int: v}, nil

	case lexer.TokenFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", tok.Val, err)
		}
		return &ast.LiteralExpr{Kind: "float", Float: v}, nil

	case lexer.TokenString:
		p.advance()
		return &ast.LiteralExpr{Kind: "string", Str: tok.Val}, nil

	case lexer.TokenIdent, lexer.TokenBacktickIdent:
		p.advance()
		return &ast.ColumnExpr{Name: tok.Val}, nil

	case lexer.TokenLParen:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, fmt.Errorf("unexpected token %s (%q) at position %d in expression", tok.Type, tok.Val, tok.Pos)
	}
}
