// Package mathexpr evaluates the arithmetic found in free-form chat text.
package mathexpr

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	ErrArithmeticEvaluation = errors.New("invalid arithmetic expression")
)

var disallowed = regexp.MustCompile(`[^0-9.+\-*/()^\s]`)

// Extract drops every character that cannot be part of an expression.
func Extract(text string) string {
	return strings.TrimSpace(disallowed.ReplaceAllString(text, ""))
}

// Evaluate computes expression. "^" is exponentiation: it groups right to
// left and binds tighter than unary minus, so -3^2 is -9 and 2^3^2 is 512.
func Evaluate(expression string) (string, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return "", fmt.Errorf("%w: empty expression", ErrArithmeticEvaluation)
	}
	if disallowed.MatchString(expression) {
		return "", fmt.Errorf("%w: unexpected characters in %q", ErrArithmeticEvaluation, expression)
	}

	p := &parser{input: expression}
	value, err := p.parseExpression()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrArithmeticEvaluation, err)
	}
	if p.skipSpaces(); p.pos < len(p.input) {
		return "", fmt.Errorf("%w: unexpected %q at %d", ErrArithmeticEvaluation, p.input[p.pos], p.pos)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "", fmt.Errorf("%w: result is not finite", ErrArithmeticEvaluation)
	}
	return formatNumber(value), nil
}

// parser is a recursive descent evaluator over the extracted character set:
//
//	expression = term { ("+" | "-") term }
//	term       = unary { ("*" | "/") unary | "(" expression ")" }
//	unary      = ("-" | "+") unary | power
//	power      = primary [ "^" unary ]
//	primary    = number | "(" expression ")"
type parser struct {
	input string
	pos   int
}

func (p *parser) parseExpression() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case '/':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left /= right
		case '(':
			// implicit multiplication, 2(3+4)
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			left *= right
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		value, err := p.parseUnary()
		return -value, err
	case '+':
		p.pos++
		return p.parseUnary()
	default:
		return p.parsePower()
	}
}

func (p *parser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if p.peek() != '^' {
		return base, nil
	}
	p.pos++
	exponent, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exponent), nil
}

func (p *parser) parsePrimary() (float64, error) {
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		value, err := p.parseExpression()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis at %d", p.pos)
		}
		p.pos++
		return value, nil
	case c == '.' || (c >= '0' && c <= '9'):
		start := p.pos
		for p.pos < len(p.input) && (p.input[p.pos] == '.' || (p.input[p.pos] >= '0' && p.input[p.pos] <= '9')) {
			p.pos++
		}
		value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
		}
		return value, nil
	case c == 0:
		return 0, errors.New("unexpected end of expression")
	default:
		return 0, fmt.Errorf("unexpected %q at %d", c, p.pos)
	}
}

// peek skips whitespace and returns the next byte, or 0 at the end.
func (p *parser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func formatNumber(value float64) string {
	if value == 0 {
		return "0"
	}
	if math.Abs(value) < 1e21 {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	return strconv.FormatFloat(value, 'g', -1, 64)
}
