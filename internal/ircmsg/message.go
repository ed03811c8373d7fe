// Package ircmsg parses and formats single IRC protocol lines.
package ircmsg

import (
	"strings"
)

// MaxParams is the largest number of parameters a message may carry.
const MaxParams = 20

// Sender is the decomposed form of a message prefix (nick!user@host).
type Sender struct {
	Nick string
	User string
	Host string
}

// Message is one parsed protocol line.
type Message struct {
	// Prefix is the raw sender descriptor without the leading ':'; empty when
	// HasPrefix is false.
	Prefix    string
	HasPrefix bool
	// Sender is nil when the message has no prefix.
	Sender  *Sender
	Command string
	Params  []string
}

// Param returns the i-th parameter or "" when it is absent.
func (m *Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Trailing returns the last parameter, or "" for a message without parameters.
func (m *Message) Trailing() string {
	if len(m.Params) == 0 {
		return ""
	}
	return m.Params[len(m.Params)-1]
}

// String reconstructs a wire line (without CRLF) that parses back to m.
func (m *Message) String() string {
	var sb strings.Builder
	if m.HasPrefix {
		sb.WriteByte(':')
		sb.WriteString(m.Prefix)
		sb.WriteByte(' ')
	}
	sb.WriteString(m.Command)
	for i, p := range m.Params {
		sb.WriteByte(' ')
		if i == len(m.Params)-1 && needsTrailing(p) {
			sb.WriteByte(':')
		}
		sb.WriteString(p)
	}
	return sb.String()
}

func needsTrailing(p string) bool {
	return p == "" || p[0] == ':' || strings.IndexByte(p, ' ') >= 0
}

// ParseSender splits a prefix into nick, user and host. The user part follows
// '!' and the host part follows '@'; a prefix without either is nick-only.
func ParseSender(prefix string) *Sender {
	s := &Sender{Nick: prefix}
	if at := strings.IndexByte(prefix, '@'); at >= 0 {
		s.Host = prefix[at+1:]
		prefix = prefix[:at]
		s.Nick = prefix
	}
	if ex := strings.IndexByte(prefix, '!'); ex >= 0 {
		s.Nick = prefix[:ex]
		s.User = prefix[ex+1:]
	}
	return s
}

// IsChannel reports whether name is a channel rather than a nick.
func IsChannel(name string) bool {
	if name == "" {
		return false
	}
	switch name[0] {
	case '#', '&', '+', '!':
		return true
	}
	return false
}
