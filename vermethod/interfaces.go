/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vermethod

//go:generate mockgen -destination ../internal/mock/httpclient/httpclient.go -package httpclient -source=interfaces.go
import (
	"context"
	"net/http"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
)

// HTTPClient performs the document fetches of did:web and https verification methods.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// KeyResolver resolves a verification method id to normalized key material.
type KeyResolver interface {
	Resolve(ctx context.Context, vmID string) (*pubkey.PublicKey, error)
}
