package lexer

import "testing"

func mustLex(t *testing.T, input string) []Token {
	t.Helper()
	tokens, err := Lex(input)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	return tokens
}

func checkTypes(t *testing.T, tokens []Token, want []TokenType) {
	t.Helper()
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i, tt := range want {
		if tokens[i].Type != tt {
			t.Errorf("token %d: expected %s, got %s", i, tt, tokens[i].Type)
		}
	}
}

func TestLexComparison(t *testing.T) {
	tokens := mustLex(t, "amount > 100")
	checkTypes(t, tokens, []TokenType{TokenIdent, TokenGt, TokenInt, TokenEOF})
	if tokens[0].Val != "amount" {
		t.Errorf("expected 'amount', got %q", tokens[0].Val)
	}
	if tokens[2].Val != "100" {
		t.Errorf("expected '100', got %q", tokens[2].Val)
	}
}

func TestLexOperators(t *testing.T) {
	tokens := mustLex(t, "a == b != c <= d >= e < f > g")
	checkTypes(t, tokens, []TokenType{
		TokenIdent, TokenEq, TokenIdent, TokenNeq, TokenIdent,
		TokenLte, TokenIdent, TokenGte, TokenIdent,
		TokenLt, TokenIdent, TokenGt, TokenIdent, TokenEOF,
	})
}

func TestLexLogical(t *testing.T) {
	tokens := mustLex(t, "a and b or c")
	checkTypes(t, tokens, []TokenType{TokenIdent, TokenAnd, TokenIdent, TokenOr, TokenIdent, TokenEOF})

	symbolic := mustLex(t, "a & b | c")
	checkTypes(t, symbolic, []TokenType{TokenIdent, TokenAnd, TokenIdent, TokenOr, TokenIdent, TokenEOF})
}

func TestLexStrings(t *testing.T) {
	tokens := mustLex(t, `"double" 'single'`)
	checkTypes(t, tokens, []TokenType{TokenString, TokenString, TokenEOF})
	if tokens[0].Val != "double" || tokens[1].Val != "single" {
		t.Errorf("unexpected string values: %q %q", tokens[0].Val, tokens[1].Val)
	}
}

func TestLexStringEscapes(t *testing.T) {
	tokens := mustLex(t, `"say \"hi\"\n"`)
	if tokens[0].Val != "say \"hi\"\n" {
		t.Errorf("unexpected value %q", tokens[0].Val)
	}
}

func TestLexBacktickIdent(t *testing.T) {
	tokens := mustLex(t, "`Client Name` == 'ACME'")
	checkTypes(t, tokens, []TokenType{TokenBacktickIdent, TokenEq, TokenString, TokenEOF})
	if tokens[0].Val != "Client Name" {
		t.Errorf("expected 'Client Name', got %q", tokens[0].Val)
	}
}

func TestLexNumbers(t *testing.T) {
	tokens := mustLex(t, "1 2.5 100")
	checkTypes(t, tokens, []TokenType{TokenInt, TokenFloat, TokenInt, TokenEOF})
}

func TestLexNegativeNumbers(t *testing.T) {
	// After a comparison, minus starts a negative literal.
	tokens := mustLex(t, "a > -5")
	checkTypes(t, tokens, []TokenType{TokenIdent, TokenGt, TokenInt, TokenEOF})
	if tokens[2].Val != "-5" {
		t.Errorf("expected '-5', got %q", tokens[2].Val)
	}

	// After an operand, minus is subtraction.
	tokens = mustLex(t, "a - 5")
	checkTypes(t, tokens, []TokenType{TokenIdent, TokenMinus, TokenInt, TokenEOF})
}

func TestLexChainedComparison(t *testing.T) {
	tokens := mustLex(t, "1 < b < 3")
	checkTypes(t, tokens, []TokenType{TokenInt, TokenLt, TokenIdent, TokenLt, TokenInt, TokenEOF})
}

func TestLexErrors(t *testing.T) {
	if _, err := Lex(`"unterminated`); err == nil {
		t.Error("expected error for unterminated string")
	}
	if _, err := Lex("`unterminated"); err == nil {
		t.Error("expected error for unterminated backtick")
	}
	if _, err := Lex("a ! b"); err == nil {
		t.Error("expected error for bare '!'")
	}
	if _, err := Lex("a @ b"); err == nil {
		t.Error("expected error for unknown character")
	}
}
