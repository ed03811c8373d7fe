// Package dispatch routes parsed server messages to the bot's features.
//
// The Dispatcher is the event loop's Handler. For every message it:
//   - logs numeric error replies (400-599) and stops there
//   - looks the command up in a fixed table and checks its parameter count
//   - runs the handler for the command
//
// Handled commands:
//   - 001 (RPL_WELCOME): join the configured channels
//   - PING: answer with PONG
//   - ERROR: log the server's complaint
//   - JOIN, PART, KICK, NICK, QUIT: append to the chat log
//   - PRIVMSG: append to the chat log, feed the leet monitor and run bot
//     commands prefixed with the command character
//
// A message whose parameter count is outside the table bounds is returned as
// a *ParamCountError, which the loop counts as a protocol violation. Other
// failures (a send on a closed session, a chat log write) are logged and do
// not stop the loop.
//
// Everything here runs on the loop goroutine; no locking is needed.
package dispatch
