package remind

import (
	"errors"
	"time"
)

// ErrBadDate is returned for input that is not a valid time or date.
var ErrBadDate = errors.New("malformed or invalid time or date")

// ParseWhen reads "hh:mm[:ss][ dd/MM[ yy]]" from the start of s, in now's
// location. Leading whitespace is allowed before the hour, the day and the
// year. Omitted date parts come from now, omitted seconds are 0, and yy
// counts years past 2000. Values that are out of range for their field
// (25:00, 31/02, a time skipped by a DST change) are rejected rather than
// normalized.
//
// rest is the input following the last consumed digit.
func ParseWhen(now time.Time, s string) (when time.Time, rest string, err error) {
	p := dateParser{s: s}
	year, month, day := now.Date()
	var hour, minute, sec int

	if hour, err = p.digits(true); err != nil {
		return time.Time{}, "", err
	}
	if !p.eat(':') {
		return time.Time{}, "", ErrBadDate
	}
	if minute, err = p.digits(false); err != nil {
		return time.Time{}, "", err
	}

	switch p.peek() {
	case ':':
		p.pos++
		if sec, err = p.digits(false); err != nil {
			return time.Time{}, "", err
		}
		if p.peek() != ' ' {
			return p.build(year, int(month), day, hour, minute, sec, now.Location())
		}
	case ' ':
	default:
		return p.build(year, int(month), day, hour, minute, sec, now.Location())
	}

	// A date follows only if a digit comes after the whitespace; otherwise
	// the whitespace belongs to the message.
	mark := p.pos
	if day, err = p.digits(true); err != nil {
		p.pos = mark
		return p.build(year, int(month), now.Day(), hour, minute, sec, now.Location())
	}
	if !p.eat('/') {
		return time.Time{}, "", ErrBadDate
	}
	var mon int
	if mon, err = p.digits(false); err != nil {
		return time.Time{}, "", err
	}
	if p.peek() != ' ' {
		return p.build(year, mon, day, hour, minute, sec, now.Location())
	}

	mark = p.pos
	yy, err := p.digits(true)
	if err != nil {
		p.pos = mark
		return p.build(year, mon, day, hour, minute, sec, now.Location())
	}
	return p.build(2000+yy, mon, day, hour, minute, sec, now.Location())
}

type dateParser struct {
	s   string
	pos int
}

func (p *dateParser) peek() byte {
	if p.pos < len(p.s) {
		return p.s[p.pos]
	}
	return 0
}

func (p *dateParser) eat(c byte) bool {
	if p.peek() != c {
		return false
	}
	p.pos++
	return true
}

// digits reads a one- or two-digit number. The position is left unchanged
// when no digit is found.
func (p *dateParser) digits(skipSpace bool) (int, error) {
	cur := p.pos
	if skipSpace {
		for cur < len(p.s) && isSpace(p.s[cur]) {
			cur++
		}
	}
	if cur >= len(p.s) || !isDigit(p.s[cur]) {
		return 0, ErrBadDate
	}
	v := int(p.s[cur] - '0')
	cur++
	if cur < len(p.s) && isDigit(p.s[cur]) {
		v = 10*v + int(p.s[cur]-'0')
		cur++
	}
	p.pos = cur
	return v, nil
}

func (p *dateParser) build(year, month, day, hour, minute, sec int, loc *time.Location) (time.Time, string, error) {
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute || t.Second() != sec {
		return time.Time{}, "", ErrBadDate
	}
	return t, p.s[p.pos:], nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
