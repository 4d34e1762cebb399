// Package siwe wraps Sign-In-With-Ethereum message verification behind a
// small interface, so the HTTP layer never touches the signature library
// directly and tests can substitute a stub.
package siwe

import (
	"context"
	"fmt"
	"strings"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/shared"
	siwego "github.com/spruceid/siwe-go"
)

// Verifier validates a signed authentication message against the nonce the
// server issued and recovers the signer's wallet address.
type Verifier interface {
	Verify(ctx context.Context, message, signature, nonce string) (string, error)
}

// MessageVerifier verifies EIP-4361 messages with spruceid/siwe-go.
type MessageVerifier struct{}

func NewMessageVerifier() *MessageVerifier {
	return &MessageVerifier{}
}

// Verify parses the message, checks the embedded nonce against the issued
// one and verifies the signature. There is no verification path without a
// pending nonce. The recovered address is returned lowercased.
func (v *MessageVerifier) Verify(ctx context.Context, message, signature, nonce string) (string, error) {

	if nonce == "" {
		return "", shared.ErrorNoPendingNonce
	}

	parsed, err := siwego.ParseMessage(message)
	if err != nil {
		return "", fmt.Errorf("error parsing message: %w", err)
	}

	if _, err := parsed.Verify(signature, nil, &nonce, nil); err != nil {
		return "", fmt.Errorf("error verifying signature: %w", err)
	}

	return strings.ToLower(parsed.GetAddress().Hex()), nil
}
