package webhook

const (
	DefaultMaxBodySize     = 64 * 1024
	DefaultSignatureHeader = "X-Hub-Signature-256"
	// MaxLines bounds how many PRIVMSGs one request may produce.
	MaxLines = 4
)

// Sayer sends a PRIVMSG; *session.Session implements it.
type Sayer interface {
	Say(target, text string) error
}

// Publisher receives a record of every relayed notification.
type Publisher interface {
	Publish(eventType string, data any)
}

// Config holds webhook server settings.
type Config struct {
	Listen    string
	Endpoints []EndpointConfig
}

// EndpointConfig binds a URL path to a channel.
type EndpointConfig struct {
	Path    string
	Channel string
	// Prefix is prepended to every relayed line.
	Prefix          string
	Secret          string
	SignatureHeader string
	MaxBodySize     int64
}

type relayRequest struct {
	Text string `json:"text"`
}

// RelayResponse is the body of a 202 answer.
type RelayResponse struct {
	Channel string `json:"channel"`
	Lines   int    `json:"lines"`
	Dropped int    `json:"dropped,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
