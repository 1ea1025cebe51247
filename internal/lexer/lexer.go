// Package lexer is a small rune-cursor scanner shared by the query
// package's advanced-query lexer. It replaces an earlier stack-based
// rune buffer with a plain offset cursor over the input string, which
// benchmarked faster and allocates nothing per read.
package lexer

import (
	"errors"
	"unicode/utf8"
)

func New(text string) *Lexer {
	return &Lexer{buf: text}
}

// Lexer is a cursor over a string that supports one rune of backup and
// position tracking, used to build hand-written scanners.
type Lexer struct {
	buf      string
	off      int
	lastRead readOp
	pos      int
	eof      bool
}

// readOp tracks the width, in bytes, of the last rune read, since UTF-8
// runes can be wider than one byte.
type readOp int8

const (
	opInvalid readOp = iota - 1
	_
	opReadRune1
	opReadRune2
	opReadRune3
	opReadRune4
)

const (
	RuneErr rune = -1
	RuneEOF rune = 0
)

// empty reports whether the offset is at the end of the input buffer.
func (l *Lexer) empty() bool { return len(l.buf) <= l.off }

// Len returns the length of the unread portion of the input buffer.
func (l *Lexer) Len() int { return len(l.buf) - l.off }

// Off returns the offset from the start of the input buffer.
func (l *Lexer) Off() int { return l.off }

// Diff returns how many bytes preceded the given already-scanned value.
func (l *Lexer) Diff(v string) int { return l.off - len(v) }

// Shift returns the next rune. If the input is exhausted, a synthetic EOF
// rune (value 0) is returned and the offset is not advanced further.
func (l *Lexer) Shift() rune {
	if l.empty() {
		l.eof = true
		l.lastRead = opReadRune1
		return RuneEOF
	}
	c := l.buf[l.off]
	if c < utf8.RuneSelf {
		l.off++
		l.lastRead = opReadRune1
		return rune(c)
	}
	r, n := utf8.DecodeRuneInString(l.buf[l.off:])
	l.off += n
	l.lastRead = readOp(n)
	return r
}

// Backup moves the offset back by the size of the last read rune. Only one
// backup is possible; if the last rune was the synthetic EOF, the offset is
// not modified.
func (l *Lexer) Backup() error {
	if l.lastRead < opReadRune1 {
		return errors.New("lexer: Backup called without a prior successful Shift")
	}
	if l.eof {
		l.eof = false
		l.lastRead = opInvalid
		return nil
	}
	if l.off >= int(l.lastRead) {
		l.off -= int(l.lastRead)
	}
	l.lastRead = opInvalid
	return nil
}

// Reduce returns the runes scanned since the last call to Reduce and
// advances the mark to the current offset.
func (l *Lexer) Reduce() string {
	v := l.buf[l.pos:l.off]
	l.pos = l.off
	return v
}

// Peek returns the next rune without mutating the offset.
func (l *Lexer) Peek() rune {
	r := l.Shift()
	_ = l.Backup()
	return r
}

// Expect advances past the next rune if it passes the check, else it backs
// up and returns false.
func (l *Lexer) Expect(valid CheckFn) bool {
	if !valid(l.Shift()) {
		_ = l.Backup()
		return false
	}
	return true
}

// Some advances for as long as subsequent runes pass the check. It returns
// false if not even one rune was consumed.
func (l *Lexer) Some(valid CheckFn) bool {
	if !valid(l.Shift()) {
		_ = l.Backup()
		return false
	}
	for valid(l.Shift()) {
	}
	_ = l.Backup()
	return true
}
