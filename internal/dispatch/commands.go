package dispatch

import (
	"fmt"
	"strings"

	"github.com/mattjoyce/ircbotd/internal/events"
	"github.com/mattjoyce/ircbotd/internal/log"
)

// request is one bot command invocation. Arg is "" when no argument was
// given; an empty argument counts as none.
type request struct {
	Nick    string
	To      string
	ReplyTo string
	Arg     string
}

type command struct {
	name string
	help string
	run  func(d *Dispatcher, r request)
}

func builtinCommands(prefix string) []command {
	return []command{
		{"commands", "Lists available commands.", (*Dispatcher).listCommands},
		{"compliment", "Writes a compliment.", (*Dispatcher).compliment},
		{"echo", "Usage: " + prefix + "echo <text>", (*Dispatcher).echo},
		{"help", "Usage: " + prefix + "help <command>", (*Dispatcher).help},
		{"remind", "Usage: " + prefix + "remind hh:mm:ss dd/MM yy <text of reminder>. yy is nr. of years past 2000.", (*Dispatcher).remind},
	}
}

// runCommand handles the text of a PRIVMSG after the command character.
// The name must be followed by a space or the end of the text.
func (d *Dispatcher) runCommand(nick, to, replyTo, line string) {
	name, arg, _ := strings.Cut(line, " ")
	cmd, ok := d.lookup(name)
	if !ok {
		return
	}

	log.WithCommand(name, nick).Info("Running command", "target", to)
	d.opts.Metrics.Command(name)
	d.publish(events.TypeCommand, map[string]string{"command": name, "nick": nick, "target": to})
	cmd.run(d, request{Nick: nick, To: to, ReplyTo: replyTo, Arg: arg})
}

func (d *Dispatcher) lookup(name string) (command, bool) {
	for _, c := range d.commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func (d *Dispatcher) say(target, text string) {
	if err := d.sess.Say(target, text); err != nil {
		d.logger.Warn("Failed to send reply", "target", target, "error", err)
	}
}

func (d *Dispatcher) listCommands(r request) {
	var b strings.Builder
	b.WriteString("Available commands:")
	for _, c := range d.commands {
		b.WriteString(" ")
		b.WriteString(d.opts.CommandChar)
		b.WriteString(c.name)
	}
	d.say(r.ReplyTo, b.String())
}

func (d *Dispatcher) compliment(r request) {
	d.say(r.ReplyTo, "You rock!")
}

func (d *Dispatcher) echo(r request) {
	if r.Arg != "" {
		d.say(r.ReplyTo, r.Arg)
	}
}

func (d *Dispatcher) help(r request) {
	p := d.opts.CommandChar
	if r.Arg == "" {
		d.say(r.ReplyTo, fmt.Sprintf("Usage: %shelp <command>. Use %scommands to list commands.", p, p))
		return
	}
	if c, ok := d.lookup(r.Arg); ok {
		d.say(r.ReplyTo, c.help)
		return
	}
	d.say(r.ReplyTo, fmt.Sprintf("'%s': No such command. Use %scommands to list commands.", r.Arg, p))
}

func (d *Dispatcher) remind(r request) {
	if d.opts.Remind == nil {
		return
	}
	d.opts.Remind.Handle(r.Nick, r.Arg, r.ReplyTo)
}
