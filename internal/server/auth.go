package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
)

const (
	SignatureHeader = "X-Lottery-Signature"
	TimestampHeader = "X-Lottery-Timestamp"

	DefaultSignatureMaxAge = 2 * time.Minute
)

var errForbidden = errors.New("request not authorized")

// Authorizer decides whether a request may act for address. The engine trusts
// every address the server hands it, so a nil error is the only proof of identity.
type Authorizer interface {
	Authorize(r *http.Request, body []byte, address solana.PublicKey) error
}

// SignatureAuthorizer accepts requests signed by the address's ed25519 key.
// The signature covers SigningMessage of the request and expires after MaxAge.
type SignatureAuthorizer struct {
	clock  clockwork.Clock
	maxAge time.Duration
}

func NewSignatureAuthorizer(clock clockwork.Clock, maxAge time.Duration) *SignatureAuthorizer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxAge <= 0 {
		maxAge = DefaultSignatureMaxAge
	}
	return &SignatureAuthorizer{clock: clock, maxAge: maxAge}
}

// SigningMessage is the payload a client signs: method, path, unix timestamp and body.
func SigningMessage(method, path, timestamp string, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(method)
	buf.WriteByte('\n')
	buf.WriteString(path)
	buf.WriteByte('\n')
	buf.WriteString(timestamp)
	buf.WriteByte('\n')
	buf.Write(body)
	return buf.Bytes()
}

func (a *SignatureAuthorizer) Authorize(r *http.Request, body []byte, address solana.PublicKey) error {
	rawSignature := r.Header.Get(SignatureHeader)
	if rawSignature == "" {
		return fmt.Errorf("%w: missing %s", errForbidden, SignatureHeader)
	}
	signature, err := solana.SignatureFromBase58(rawSignature)
	if err != nil {
		return fmt.Errorf("%w: malformed signature: %v", errForbidden, err)
	}

	timestamp := r.Header.Get(TimestampHeader)
	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed %s", errForbidden, TimestampHeader)
	}
	age := a.clock.Since(time.Unix(unix, 0))
	if age > a.maxAge || age < -a.maxAge {
		return fmt.Errorf("%w: signature expired", errForbidden)
	}

	if !address.Verify(SigningMessage(r.Method, r.URL.Path, timestamp, body), signature) {
		return fmt.Errorf("%w: signature does not match %s", errForbidden, address)
	}
	return nil
}
