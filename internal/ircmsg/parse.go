package ircmsg

import (
	"errors"
	"fmt"
)

// ErrInvalidMessage is matched by every ParseError.
var ErrInvalidMessage = errors.New("invalid message")

// Reason says why a line was rejected.
type Reason string

const (
	ReasonEmptyPrefix    Reason = "empty prefix"
	ReasonMissingCommand Reason = "missing command after prefix"
	ReasonEmptyCommand   Reason = "empty command"
	ReasonEmptyParam     Reason = "empty parameter"
	ReasonTooManyParams  Reason = "too many parameters"
)

// ParseError is returned for lines that violate the message grammar.
type ParseError struct {
	Reason Reason
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid message: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrInvalidMessage }

func invalid(r Reason) (*Message, error) {
	return nil, &ParseError{Reason: r}
}

// Parse splits one line (without terminator) into prefix, command and
// parameters. Parameters are separated by single spaces; a parameter starting
// with ':' takes the rest of the line, spaces included. The input is not
// modified and the result does not alias it.
func Parse(raw []byte) (*Message, error) {
	cur := 0
	msg := &Message{}

	if cur < len(raw) && raw[cur] == ':' {
		cur++
		begin := cur
		for cur < len(raw) && raw[cur] != ' ' {
			cur++
		}
		if cur == begin {
			return invalid(ReasonEmptyPrefix)
		}
		if cur == len(raw) {
			return invalid(ReasonMissingCommand)
		}
		msg.Prefix = string(raw[begin:cur])
		msg.HasPrefix = true
		msg.Sender = ParseSender(msg.Prefix)
		cur++ // space
	}

	begin := cur
	for cur < len(raw) && raw[cur] != ' ' {
		cur++
	}
	if cur == begin {
		return invalid(ReasonEmptyCommand)
	}
	msg.Command = string(raw[begin:cur])

	for cur < len(raw) {
		if len(msg.Params) == MaxParams {
			return invalid(ReasonTooManyParams)
		}
		cur++ // space
		if cur == len(raw) || raw[cur] == ' ' {
			return invalid(ReasonEmptyParam)
		}
		if raw[cur] == ':' {
			msg.Params = append(msg.Params, string(raw[cur+1:]))
			break
		}
		begin = cur
		for cur < len(raw) && raw[cur] != ' ' {
			cur++
		}
		msg.Params = append(msg.Params, string(raw[begin:cur]))
	}

	return msg, nil
}

// ParseString is Parse for string input.
func ParseString(line string) (*Message, error) {
	return Parse([]byte(line))
}
