package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"datachat_llm/internal/dataset"
)

// Filter evaluates a query against a frame and returns the indices of
// matching rows. The grammar supports comparisons between a column and
// a literal, combined with & and | and grouped with parentheses:
//
//	region == "North" & (sales > 1000 | qty >= 5)
//
// Operators: == != > >= < <= contains. String literals may be quoted
// with single or double quotes; bare words and numbers are accepted.
func Filter(f *dataset.Frame, query string) ([]int, error) {
	tokens, err := tokenize(query)
	if err != nil {
		return nil, err
	}
	p := &parser{frame: f, tokens: tokens}
	pred, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("unexpected %q in filter", p.peek().text)
	}

	// non-nil even when empty: callers treat nil as "no restriction"
	rows := make([]int, 0)
	for i := 0; i < f.NumRows(); i++ {
		if pred(i) {
			rows = append(rows, i)
		}
	}
	return rows, nil
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokOp
	tokAnd
	tokOr
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(query string) ([]token, error) {
	var tokens []token
	runes := []rune(query)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '&':
			tokens = append(tokens, token{tokAnd, "&"})
			i++
		case c == '|':
			tokens = append(tokens, token{tokOr, "|"})
			i++
		case c == '(':
			tokens = append(tokens, token{tokLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")"})
			i++
		case c == '=' || c == '!' || c == '>' || c == '<':
			op := string(c)
			if i+1 < len(runes) && runes[i+1] == '=' {
				op += "="
				i++
			}
			i++
			if op == "=" || op == "!" {
				return nil, fmt.Errorf("invalid operator %q, did you mean %q?", op, op+"=")
			}
			tokens = append(tokens, token{tokOp, op})
		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated string in filter")
			}
			tokens = append(tokens, token{tokString, string(runes[i+1 : j])})
			i = j + 1
		default:
			j := i
			for j < len(runes) && !strings.ContainsRune(" \t\n&|()=!<>", runes[j]) {
				j++
			}
			word := string(runes[i:j])
			i = j
			if word == "contains" {
				tokens = append(tokens, token{tokOp, "contains"})
			} else if _, err := strconv.ParseFloat(word, 64); err == nil {
				tokens = append(tokens, token{tokNumber, word})
			} else {
				tokens = append(tokens, token{tokIdent, word})
			}
		}
	}
	tokens = append(tokens, token{tokEOF, ""})
	return tokens, nil
}

type predicate func(row int) bool

type parser struct {
	frame  *dataset.Frame
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) done() bool { return p.peek().kind == tokEOF }

// parseOr implements the lowest-precedence level: a | b | c.
func (p *parser) parseOr() (predicate, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		left = func(row int) bool { return l(row) || r(row) }
	}
	return left, nil
}

func (p *parser) parseAnd() (predicate, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		left = func(row int) bool { return l(row) && r(row) }
	}
	return left, nil
}

func (p *parser) parseTerm() (predicate, error) {
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis in filter")
		}
		return inner, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (predicate, error) {
	colTok := p.next()
	if colTok.kind != tokIdent {
		return nil, fmt.Errorf("expected a column name, got %q", colTok.text)
	}
	col := p.frame.Column(colTok.text)
	if col == nil {
		if resolved := dataset.Resolve(p.frame, colTok.text); resolved != "" {
			col = p.frame.Column(resolved)
		}
	}
	if col == nil {
		return nil, fmt.Errorf("unknown column %q", colTok.text)
	}

	opTok := p.next()
	if opTok.kind != tokOp {
		return nil, fmt.Errorf("expected an operator after %q, got %q", colTok.text, opTok.text)
	}

	litTok := p.next()
	if litTok.kind != tokString && litTok.kind != tokNumber && litTok.kind != tokIdent {
		return nil, fmt.Errorf("expected a value after %q, got %q", opTok.text, litTok.text)
	}

	return buildComparison(col, opTok.text, litTok.text)
}

// buildComparison compiles one typed comparison. Numeric and datetime
// columns require order-compatible literals; contains works on the
// display form of any column.
func buildComparison(col *dataset.Column, op, literal string) (predicate, error) {
	if op == "contains" {
		needle := strings.ToLower(literal)
		return func(row int) bool {
			return col.IsValid(row) && strings.Contains(strings.ToLower(col.Display(row)), needle)
		}, nil
	}

	switch col.Kind {
	case dataset.KindNumeric:
		want, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q is numeric but %q is not a number", col.Name, literal)
		}
		return func(row int) bool {
			return col.IsValid(row) && compareFloat(col.Float(row), want, op)
		}, nil

	case dataset.KindDatetime:
		want, err := parseFilterDate(literal)
		if err != nil {
			return nil, fmt.Errorf("column %q holds dates but %q is not a date", col.Name, literal)
		}
		return func(row int) bool {
			if !col.IsValid(row) {
				return false
			}
			v := col.Time(row)
			switch op {
			case "==":
				return v.Equal(want)
			case "!=":
				return !v.Equal(want)
			case ">":
				return v.After(want)
			case ">=":
				return !v.Before(want)
			case "<":
				return v.Before(want)
			case "<=":
				return !v.After(want)
			}
			return false
		}, nil

	default:
		if op != "==" && op != "!=" {
			return nil, fmt.Errorf("operator %q needs a numeric or date column, %q is text", op, col.Name)
		}
		return func(row int) bool {
			if !col.IsValid(row) {
				return false
			}
			eq := strings.EqualFold(col.Display(row), literal)
			if op == "!=" {
				return !eq
			}
			return eq
		}, nil
	}
}

func compareFloat(v, want float64, op string) bool {
	switch op {
	case "==":
		return v == want
	case "!=":
		return v != want
	case ">":
		return v > want
	case ">=":
		return v >= want
	case "<":
		return v < want
	case "<=":
		return v <= want
	}
	return false
}

func parseFilterDate(literal string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339, "01/02/2006"} {
		if t, err := time.Parse(layout, literal); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", literal)
}
