package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tabwell/tq/table"
)

// --- extract_text / extract_query_string ---

type extractInstruction struct {
	target  string
	result  string
	pattern string
	re      *regexp.Regexp
}

type extractTextAction struct {
	name         string
	instructions []extractInstruction
}

func newExtractTextAction(payload any) (Action, error) {
	maps, err := mapList(payload)
	if err != nil {
		return nil, err
	}
	instructions := make([]extractInstruction, len(maps))
	for i, m := range maps {
		pattern, err := stringField(m, "regex")
		if err != nil {
			return nil, err
		}
		instr, err := parseExtractInstruction(m, pattern)
		if err != nil {
			return nil, err
		}
		instructions[i] = instr
	}
	return &extractTextAction{name: "extract_text", instructions: instructions}, nil
}

func newExtractQueryStringAction(payload any) (Action, error) {
	maps, err := mapList(payload)
	if err != nil {
		return nil, err
	}
	instructions := make([]extractInstruction, len(maps))
	for i, m := range maps {
		key, err := stringField(m, "query_string")
		if err != nil {
			return nil, err
		}
		synthesized := fmt.Sprintf(`
			.*          # anything at the start
			[?&]        # query string preceded by & or ?
			%s =        # the key itself
			([^&#]*)    # capture up until & or #
		`, regexp.QuoteMeta(key))
		instr, err := parseExtractInstruction(m, synthesized)
		if err != nil {
			return nil, err
		}
		instructions[i] = instr
	}
	return &extractTextAction{name: "extract_query_string", instructions: instructions}, nil
}

func parseExtractInstruction(m map[string]any, pattern string) (extractInstruction, error) {
	target, err := stringField(m, "target_column")
	if err != nil {
		return extractInstruction{}, err
	}
	result, err := stringField(m, "result_column")
	if err != nil {
		return extractInstruction{}, err
	}
	re, err := compileVerbose(pattern)
	if err != nil {
		return extractInstruction{}, err
	}
	return extractInstruction{target: target, result: result, pattern: pattern, re: re}, nil
}

func (a *extractTextAction) Name() string { return a.name }

func (a *extractTextAction) Apply(t *table.Table) (*table.Table, error) {
	out := t
	for _, instr := range a.instructions {
		idx := out.ColIndex(instr.target)
		if idx < 0 {
			return nil, &ColumnNotFoundError{Column: instr.target}
		}
		vals := make([]table.Value, len(out.Rows))
		for i, row := range out.Rows {
			v := row.Values[idx]
			if v.IsNull() {
				vals[i] = table.Null()
				continue
			}
			m := instr.re.FindStringSubmatch(v.AsString())
			if m == nil {
				vals[i] = table.Null()
				continue
			}
			vals[i] = table.StrVal(m[1])
		}
		out = setColumn(out, instr.result, vals)
	}
	return out, nil
}

// compileVerbose compiles a free-spacing pattern: whitespace outside a
// character class is dropped and an unescaped # starts a comment that
// runs to the end of the line. RE2 has no (?x) flag, so the stripping
// happens here; \r is whitespace too, which keeps CRLF rule files
// identical to LF ones.
func compileVerbose(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	inClass := false
	escaped := false
	inComment := false
	for _, ch := range pattern {
		if inComment {
			if ch == '\n' {
				inComment = false
			}
			continue
		}
		if escaped {
			sb.WriteRune('\\')
			sb.WriteRune(ch)
			escaped = false
			continue
		}
		switch {
		case ch == '\\':
			escaped = true
		case inClass:
			if ch == ']' {
				inClass = false
			}
			sb.WriteRune(ch)
		case ch == '[':
			inClass = true
			sb.WriteRune(ch)
		case ch == '#':
			inComment = true
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			// dropped
		default:
			sb.WriteRune(ch)
		}
	}
	if escaped {
		return nil, &RegexError{Pattern: pattern, Err: fmt.Errorf("trailing backslash")}
	}

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, &RegexError{Pattern: pattern, Err: err}
	}
	if re.NumSubexp() < 1 {
		return nil, &RegexError{Pattern: pattern, Err: fmt.Errorf("pattern must contain a capture group")}
	}
	return re, nil
}

// --- replace_text ---

type replaceInstruction struct {
	target      string
	result      string
	find        string
	replacement string
}

type replaceTextAction struct {
	instructions []replaceInstruction
}

func newReplaceTextAction(payload any) (Action, error) {
	maps, err := mapList(payload)
	if err != nil {
		return nil, err
	}
	instructions := make([]replaceInstruction, len(maps))
	for i, m := range maps {
		target, err := stringField(m, "target_column")
		if err != nil {
			return nil, err
		}
		result, err := stringField(m, "result_column")
		if err != nil {
			return nil, err
		}
		find, err := stringField(m, "text_to_find")
		if err != nil {
			return nil, err
		}
		replacement, err := stringField(m, "replacement_text")
		if err != nil {
			return nil, err
		}
		instructions[i] = replaceInstruction{target: target, result: result, find: find, replacement: replacement}
	}
	return &replaceTextAction{instructions: instructions}, nil
}

func (a *replaceTextAction) Name() string { return "replace_text" }

func (a *replaceTextAction) Apply(t *table.Table) (*table.Table, error) {
	out := t
	for _, instr := range a.instructions {
		idx := out.ColIndex(instr.target)
		if idx < 0 {
			return nil, &ColumnNotFoundError{Column: instr.target}
		}
		vals := make([]table.Value, len(out.Rows))
		for i, row := range out.Rows {
			v := row.Values[idx]
			if v.IsNull() {
				vals[i] = table.Null()
				continue
			}
			s := v.AsString()
			switch instr.find {
			case "^":
				s = instr.replacement + s
			case "$":
				s = s + instr.replacement
			default:
				s = strings.ReplaceAll(s, instr.find, instr.replacement)
			}
			vals[i] = table.StrVal(s)
		}
		out = setColumn(out, instr.result, vals)
	}
	return out, nil
}

// --- add_text_at_start / add_text_at_end ---

type concatInstruction struct {
	target string
	result string
	text   string
}

type concatTextAction struct {
	name         string
	prepend      bool
	instructions []concatInstruction
}

func newAppendTextAction(payload any) (Action, error) {
	return newConcatTextAction(payload, "add_text_at_end", false)
}

func newPrependTextAction(payload any) (Action, error) {
	return newConcatTextAction(payload, "add_text_at_start", true)
}

func newConcatTextAction(payload any, name string, prepend bool) (Action, error) {
	maps, err := mapList(payload)
	if err != nil {
		return nil, err
	}
	instructions := make([]concatInstruction, len(maps))
	for i, m := range maps {
		target, err := stringField(m, "target_column")
		if err != nil {
			return nil, err
		}
		result, err := stringField(m, "result_column")
		if err != nil {
			return nil, err
		}
		text, err := stringField(m, "text")
		if err != nil {
			return nil, err
		}
		instructions[i] = concatInstruction{target: target, result: result, text: text}
	}
	return &concatTextAction{name: name, prepend: prepend, instructions: instructions}, nil
}

func (a *concatTextAction) Name() string { return a.name }

func (a *concatTextAction) Apply(t *table.Table) (*table.Table, error) {
	out := t
	for _, instr := range a.instructions {
		idx := out.ColIndex(instr.target)
		if idx < 0 {
			return nil, &ColumnNotFoundError{Column: instr.target}
		}
		vals := make([]table.Value, len(out.Rows))
		for i, row := range out.Rows {
			v := row.Values[idx]
			if v.IsNull() {
				vals[i] = table.Null()
				continue
			}
			if a.prepend {
				vals[i] = table.StrVal(instr.text + v.AsString())
			} else {
				vals[i] = table.StrVal(v.AsString() + instr.text)
			}
		}
		out = setColumn(out, instr.result, vals)
	}
	return out, nil
}
