// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package query

import (
	"fmt"
	"strings"

	ilexer "github.com/jimlambrt/fquery/internal/lexer"
)

// lexer tokenizes the advanced query language described in doc.go. It is
// built on top of the cursor-based internal/lexer scanner rather than the
// rune-stack this package used before; the cursor scans with no per-rune
// allocation.
type lexer struct {
	l *ilexer.Lexer
}

func newLexer(s string) *lexer {
	return &lexer{l: ilexer.New(s)}
}

// SyntaxError reports a lexer or parser failure, with the byte offset of
// the offending rune/token in the original query text.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (at offset %d): %s", ErrSyntax, e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

func newSyntaxError(pos int, format string, args ...any) error {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// nextToken returns the next token or an error. Once EOF is reached,
// nextToken keeps returning an eofToken no matter how many times it is
// called.
func (lx *lexer) nextToken() (token, error) {
	lx.skipWhitespace()
	start := lx.l.Off()
	r := lx.l.Peek()

	switch {
	case r == ilexer.RuneEOF:
		return token{Type: eofToken, Pos: start}, nil
	case ilexer.IsParenLeft(r):
		lx.l.Shift()
		return token{Type: startLogicalExprToken, Value: "(", Pos: start}, nil
	case ilexer.IsParenRight(r):
		lx.l.Shift()
		return token{Type: endLogicalExprToken, Value: ")", Pos: start}, nil
	case ilexer.IsDoubleQuote(r):
		return lx.lexQuotedString(start)
	case r == '!':
		return lx.lexBang(start)
	case r == '=':
		return lx.lexEqual(start)
	case r == ':':
		lx.l.Shift()
		return token{Type: containsToken, Value: ":", Pos: start}, nil
	case r == '<':
		return lx.lexLess(start)
	case r == '>':
		return lx.lexGreater(start)
	case ilexer.IsDigit(r), r == '+', r == '-':
		return lx.lexNumberOrDate(start)
	case ilexer.IsIdentStart(r):
		return lx.lexIdentOrKeyword(start)
	default:
		lx.l.Shift()
		return token{}, newSyntaxError(start, "unrecognized character %q", r)
	}
}

func (lx *lexer) skipWhitespace() {
	lx.l.Some(ilexer.IsSpace)
	lx.l.Reduce()
}

// lexQuotedString scans a double-quoted string literal. \" escapes a quote
// and \\ escapes a backslash; no other escape sequences exist, so a
// backslash followed by anything else is kept verbatim.
func (lx *lexer) lexQuotedString(start int) (token, error) {
	lx.l.Shift() // consume opening quote
	lx.l.Reduce()
	var b strings.Builder
	for {
		r := lx.l.Shift()
		switch r {
		case ilexer.RuneEOF:
			return token{}, newSyntaxError(start, "unterminated string literal")
		case '"':
			lx.l.Reduce()
			return token{Type: stringToken, Value: b.String(), Pos: start}, nil
		case '\\':
			next := lx.l.Shift()
			switch next {
			case '"':
				b.WriteRune('"')
			case '\\':
				b.WriteRune('\\')
			default:
				b.WriteRune('\\')
				if next != ilexer.RuneEOF {
					b.WriteRune(next)
				}
			}
		default:
			b.WriteRune(r)
		}
	}
}

func (lx *lexer) lexBang(start int) (token, error) {
	const op = "query.lexBang"
	lx.l.Shift() // consume '!'
	next := lx.l.Shift()
	switch next {
	case '=':
		lx.l.Reduce()
		return token{Type: notEqualToken, Value: "!=", Pos: start}, nil
	case ':':
		lx.l.Reduce()
		return token{Type: notContainsToken, Value: "!:", Pos: start}, nil
	default:
		return token{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidNotEqual, newSyntaxError(start, "got %q", fmt.Sprintf("!%c", next)))
	}
}

func (lx *lexer) lexEqual(start int) (token, error) {
	lx.l.Shift() // consume '='
	switch lx.l.Peek() {
	case '<':
		lx.l.Shift()
		lx.l.Reduce()
		return token{Type: lessThanOrEqualAliasToken, Value: "=<", Pos: start}, nil
	case '>':
		lx.l.Shift()
		lx.l.Reduce()
		return token{Type: greaterThanOrEqualAliasToken, Value: "=>", Pos: start}, nil
	default:
		lx.l.Reduce()
		return token{Type: equalToken, Value: "=", Pos: start}, nil
	}
}

func (lx *lexer) lexLess(start int) (token, error) {
	lx.l.Shift() // consume '<'
	if lx.l.Expect(ilexer.Eq('=')) {
		lx.l.Reduce()
		return token{Type: lessThanOrEqualToken, Value: "<=", Pos: start}, nil
	}
	lx.l.Reduce()
	return token{Type: lessThanToken, Value: "<", Pos: start}, nil
}

func (lx *lexer) lexGreater(start int) (token, error) {
	lx.l.Shift() // consume '>'
	if lx.l.Expect(ilexer.Eq('=')) {
		lx.l.Reduce()
		return token{Type: greaterThanOrEqualToken, Value: ">=", Pos: start}, nil
	}
	lx.l.Reduce()
	return token{Type: greaterThanToken, Value: ">", Pos: start}, nil
}

// lexIdentOrKeyword scans [A-Za-z_][A-Za-z0-9_]* and classifies it as one
// of the reserved lowercase keywords (and, or, not, null) or a plain
// identifier.
func (lx *lexer) lexIdentOrKeyword(start int) (token, error) {
	lx.l.Shift()
	lx.l.Some(ilexer.IsIdentPart)
	raw := lx.l.Reduce()
	switch strings.ToLower(raw) {
	case "and":
		return token{Type: andToken, Value: raw, Pos: start}, nil
	case "or":
		return token{Type: orToken, Value: raw, Pos: start}, nil
	case "not":
		return token{Type: notToken, Value: raw, Pos: start}, nil
	case "null":
		return token{Type: nullToken, Value: raw, Pos: start}, nil
	default:
		return token{Type: identToken, Value: raw, Pos: start}, nil
	}
}

// lexNumberOrDate scans either a signed numeric literal (optional sign,
// digits, optional .digits) or a date/datetime literal (YYYY-MM-DD,
// optionally followed by " HH:MM[:SS]"). A leading sign always indicates a
// plain number, since date literals never carry one.
func (lx *lexer) lexNumberOrDate(start int) (token, error) {
	if lx.l.Peek() == '+' || lx.l.Peek() == '-' {
		lx.l.Shift()
		if !lx.l.Some(ilexer.IsDigit) {
			return token{}, newSyntaxError(start, "invalid numeric literal")
		}
		lx.scanFraction()
		return token{Type: numberToken, Value: lx.l.Reduce(), Pos: start}, nil
	}

	lx.l.Some(ilexer.IsDigit) // caller already confirmed the first rune is a digit

	if lx.l.Expect(ilexer.IsDash) {
		if lx.tryDateTail() {
			raw := lx.l.Reduce()
			if dt, ok := lx.tryDateTime(raw); ok {
				dt.Pos = start
				return dt, nil
			}
			return token{Type: dateToken, Value: raw, Pos: start}, nil
		}
		return token{}, newSyntaxError(start, "invalid date literal")
	}

	lx.scanFraction()
	return token{Type: numberToken, Value: lx.l.Reduce(), Pos: start}, nil
}

// tryDateTail consumes the "NN-NN" remainder of a date after the leading
// "NNNN-" has already been scanned.
func (lx *lexer) tryDateTail() bool {
	if !lx.l.Some(ilexer.IsDigit) {
		return false
	}
	if !lx.l.Expect(ilexer.IsDash) {
		return false
	}
	return lx.l.Some(ilexer.IsDigit)
}

// tryDateTime looks for a trailing " HH:MM[:SS]" immediately after a
// scanned date and, if present, folds it into the token, returning a
// dateTimeToken.
func (lx *lexer) tryDateTime(datePart string) (token, bool) {
	if lx.l.Peek() != ' ' {
		return token{}, false
	}
	save := *lx.l
	lx.l.Shift() // consume the separating space
	if !ilexer.IsDigit(lx.l.Peek()) {
		*lx.l = save
		return token{}, false
	}
	lx.l.Reduce() // drop the space from the captured span

	if !lx.l.Some(ilexer.IsDigit) || !lx.l.Expect(ilexer.IsColon) || !lx.l.Some(ilexer.IsDigit) {
		*lx.l = save
		return token{}, false
	}
	if lx.l.Expect(ilexer.IsColon) {
		lx.l.Some(ilexer.IsDigit)
	}
	timePart := lx.l.Reduce()
	return token{Type: dateTimeToken, Value: datePart + " " + timePart}, true
}

func (lx *lexer) scanFraction() {
	if lx.l.Expect(ilexer.IsDot) {
		lx.l.Some(ilexer.IsDigit)
	}
}
