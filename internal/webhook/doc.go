// Package webhook relays signed HTTP notifications into IRC channels.
//
// Each endpoint is bound to one channel and one shared secret. A POST is
// accepted only when its HMAC-SHA256 signature matches; the body is then
// turned into at most MaxLines PRIVMSGs to the endpoint's channel.
//
// Accepted bodies:
//
//	{"text": "deploy finished\nall green"}   JSON with a text field
//	deploy finished                          anything else, as plain text
//
// Responses: 202 with the number of lines sent, 400 for an empty message,
// 403 for any signature problem (no details), 404 for unknown paths, 413 for
// oversized bodies and 502/503 when the bot cannot send.
//
// Example configuration:
//
//	webhooks:
//	  enabled: true
//	  listen: "127.0.0.1:8081"
//	  endpoints:
//	    - path: /hooks/ci
//	      channel: "#ops"
//	      prefix: "[ci] "
//	      secret: ${CI_WEBHOOK_SECRET}
//	      signature_header: X-Hub-Signature-256
//	      max_body_size: 64KB
package webhook
