package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// errVerification is deliberately uninformative; callers answer 403.
var errVerification = errors.New("webhook verification failed")

// verifySignature checks an HMAC-SHA256 signature of body. The signature is
// hex, optionally in GitHub's "sha256=<hex>" form.
func verifySignature(body []byte, signature, secret string) error {
	if secret == "" || signature == "" {
		return errVerification
	}
	got, err := hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	if err != nil {
		return errVerification
	}
	if !hmac.Equal(sign(body, secret), got) {
		return errVerification
	}
	return nil
}

func sign(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// Signature returns the GitHub-style signature header value for body.
func Signature(body []byte, secret string) string {
	return "sha256=" + hex.EncodeToString(sign(body, secret))
}
