/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vermethod_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/internal/mock/httpclient"
	"github.com/trustbloc/vc-offline-verifier/util/codec"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
	"github.com/trustbloc/vc-offline-verifier/vermethod"
)

// rewriteTransport sends every request to the test server, keeping the path.
type rewriteTransport struct {
	target *url.URL
}

func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = rt.target.Scheme
	out.URL.Host = rt.target.Host
	out.Host = rt.target.Host

	return http.DefaultTransport.RoundTrip(out)
}

func newTestServer(t *testing.T, docs map[string]interface{}) (*httptest.Server, *http.Client) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, ok := docs[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		require.Contains(t, r.Header.Get("Accept"), "application/did+json")

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(doc))
	}))
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	return srv, &http.Client{Transport: &rewriteTransport{target: target}}
}

func TestResolver_DIDKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	mb := pubkey.Ed25519Multibase(pub)
	vmID := "did:key:" + mb + "#" + mb

	// no network calls are expected
	client := httpclient.NewMockHTTPClient(gomock.NewController(t))

	key, err := vermethod.NewResolver(vermethod.WithHTTPClient(client)).Resolve(context.Background(), vmID)
	require.NoError(t, err)
	require.Equal(t, pubkey.Ed25519, key.Type)
	require.Equal(t, []byte(pub), key.BytesKey.Bytes)
	require.Equal(t, pubkey.Ed25519VerificationKey2020, key.VerificationMethodType)
	require.Equal(t, vmID, key.VerificationMethod)

	t.Run("secp256k1 key", func(t *testing.T) {
		priv, err := btcec.NewPrivateKey()
		require.NoError(t, err)

		k1mb := codec.EncodeMultibase(append([]byte{0xe7, 0x01}, priv.PubKey().SerializeCompressed()...))

		k1, err := vermethod.NewResolver(vermethod.WithHTTPClient(client)).
			Resolve(context.Background(), "did:key:"+k1mb+"#"+k1mb)
		require.NoError(t, err)
		require.Equal(t, pubkey.Secp256k1, k1.Type)
		require.Equal(t, pubkey.EcdsaSecp256k1VerificationKey2019, k1.VerificationMethodType)
	})
}

func TestResolver_DIDWeb(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)

	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	k1, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	docs := map[string]interface{}{
		"/.well-known/did.json": map[string]interface{}{
			"id": "did:web:example.com",
			"verificationMethod": []interface{}{
				map[string]interface{}{
					"id":                 "did:web:example.com#key-0",
					"type":               pubkey.Ed25519VerificationKey2020,
					"controller":         "did:web:example.com",
					"publicKeyMultibase": pubkey.Ed25519Multibase(pub),
				},
				map[string]interface{}{
					"id":           "#key-1",
					"type":         pubkey.EcdsaSecp256k1VerificationKey2019,
					"controller":   "did:web:example.com",
					"publicKeyHex": hex.EncodeToString(k1.PubKey().SerializeCompressed()),
				},
				map[string]interface{}{
					"id":   "did:web:example.com#no-key",
					"type": pubkey.Ed25519VerificationKey2018,
				},
				map[string]interface{}{
					"id":           "did:web:example.com#bad-pem",
					"type":         pubkey.RsaVerificationKey2018,
					"publicKeyPem": []interface{}{"not", "a", "string"},
				},
			},
		},
		"/issuers/1/did.json": map[string]interface{}{
			"id": "did:web:example.com:issuers:1",
			"verificationMethod": []interface{}{
				map[string]interface{}{
					"id":                 "did:web:example.com:issuers:1#key-0",
					"type":               pubkey.Ed25519VerificationKey2020,
					"publicKeyMultibase": "z-ignored",
					"publicKeyPem":       pemText,
				},
			},
		},
	}

	_, client := newTestServer(t, docs)
	r := vermethod.NewResolver(vermethod.WithHTTPClient(client))

	t.Run("multibase entry", func(t *testing.T) {
		key, err := r.Resolve(context.Background(), "did:web:example.com#key-0")
		require.NoError(t, err)
		require.Equal(t, pubkey.Ed25519, key.Type)
		require.Equal(t, []byte(pub), key.BytesKey.Bytes)
		require.Equal(t, pubkey.EncodingMultibase, key.Encoding)
	})

	t.Run("relative fragment entry", func(t *testing.T) {
		key, err := r.Resolve(context.Background(), "did:web:example.com#key-1")
		require.NoError(t, err)
		require.Equal(t, pubkey.Secp256k1, key.Type)
		require.Equal(t, k1.PubKey().SerializeUncompressed(), key.BytesKey.Bytes)
	})

	t.Run("pem wins over multibase", func(t *testing.T) {
		key, err := r.Resolve(context.Background(), "did:web:example.com:issuers:1#key-0")
		require.NoError(t, err)
		require.Equal(t, pubkey.EncodingPEM, key.Encoding)
		require.Equal(t, []byte(pub), key.BytesKey.Bytes)
	})

	t.Run("verification method not in document", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), "did:web:example.com#key-9")
		require.True(t, vcerror.IsKind(err, vcerror.VerificationMethodNotFound))
	})

	t.Run("entry without key material", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), "did:web:example.com#no-key")
		require.True(t, vcerror.IsKind(err, vcerror.UnsupportedKeyFormat))
	})

	t.Run("malformed entry", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), "did:web:example.com#bad-pem")
		require.True(t, vcerror.IsKind(err, vcerror.UnsupportedKeyFormat), err.Error())
		require.Contains(t, err.Error(), "did:web:example.com#bad-pem")
	})

	t.Run("document not found", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), "did:web:example.com:missing#key-0")
		require.True(t, vcerror.IsKind(err, vcerror.VerificationMethodNotFound))
		require.Contains(t, err.Error(), "status 404")
	})
}

func TestResolver_HTTPS(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	docs := map[string]interface{}{
		"/keys/jwk.json": map[string]interface{}{
			"key_type": pubkey.JSONWebKey2020,
			"public_key_jwk": map[string]interface{}{
				"kty": "OKP",
				"crv": "Ed25519",
				"x":   codec.EncodeBase64URL(pub),
			},
		},
		"/keys/base58.json": map[string]interface{}{
			"type":            pubkey.Ed25519VerificationKey2018,
			"publicKeyBase58": codec.EncodeBase58(pub),
		},
		"/keys/untyped.json": map[string]interface{}{
			"publicKeyMultibase": pubkey.Ed25519Multibase(pub),
		},
		"/keys/empty.json": map[string]interface{}{
			"keyType": pubkey.Ed25519VerificationKey2020,
		},
	}

	_, client := newTestServer(t, docs)
	r := vermethod.NewResolver(vermethod.WithHTTPClient(client))

	t.Run("snake case jwk", func(t *testing.T) {
		key, err := r.Resolve(context.Background(), "https://issuer.example.com/keys/jwk.json#k")
		require.NoError(t, err)
		require.Equal(t, pubkey.Ed25519, key.Type)
		require.Equal(t, pubkey.EncodingJWK, key.Encoding)
		require.Equal(t, "https://issuer.example.com/keys/jwk.json#k", key.VerificationMethod)
	})

	t.Run("base58", func(t *testing.T) {
		key, err := r.Resolve(context.Background(), "https://issuer.example.com/keys/base58.json")
		require.NoError(t, err)
		require.Equal(t, []byte(pub), key.BytesKey.Bytes)
	})

	t.Run("missing key type", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), "https://issuer.example.com/keys/untyped.json")
		require.True(t, vcerror.IsKind(err, vcerror.MissingKeyType))
	})

	t.Run("no key field", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), "https://issuer.example.com/keys/empty.json")
		require.True(t, vcerror.IsKind(err, vcerror.UnsupportedKeyFormat))
	})
}

func TestResolver_NetworkFailure(t *testing.T) {
	client := httpclient.NewMockHTTPClient(gomock.NewController(t))
	client.EXPECT().Do(gomock.Any()).Return(nil, errors.New("connection refused")).Times(1)

	_, err := vermethod.NewResolver(vermethod.WithHTTPClient(client)).
		Resolve(context.Background(), "did:web:example.com#key-0")
	require.Error(t, err)
	require.True(t, vcerror.IsKind(err, vcerror.VerificationMethodNotFound))
	require.Contains(t, err.Error(), "connection refused")
}

func TestResolver_InvalidDID(t *testing.T) {
	client := httpclient.NewMockHTTPClient(gomock.NewController(t))

	_, err := vermethod.NewResolver(vermethod.WithHTTPClient(client)).
		Resolve(context.Background(), "did:web:bad_domain#key-0")
	require.True(t, vcerror.IsKind(err, vcerror.InvalidDid))
}

func TestKeyFromDocument(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	const vmID = "did:example:123#key-1"

	t.Run("type from object", func(t *testing.T) {
		pk, err := vermethod.KeyFromDocument(map[string]interface{}{
			"id":                 vmID,
			"type":               pubkey.Ed25519VerificationKey2020,
			"publicKeyMultibase": pubkey.Ed25519Multibase(pub),
		}, "", vmID)
		require.NoError(t, err)
		require.Equal(t, pubkey.Ed25519, pk.Type)
		require.Equal(t, []byte(pub), pk.BytesKey.Bytes)
	})

	t.Run("base58 is the last resort", func(t *testing.T) {
		pk, err := vermethod.KeyFromDocument(map[string]interface{}{
			"publicKeyBase58": codec.EncodeBase58(pub),
		}, pubkey.Ed25519VerificationKey2018, vmID)
		require.NoError(t, err)
		require.Equal(t, pubkey.EncodingBase58, pk.Encoding)
	})

	t.Run("no type", func(t *testing.T) {
		_, err := vermethod.KeyFromDocument(map[string]interface{}{
			"publicKeyMultibase": pubkey.Ed25519Multibase(pub),
		}, "", vmID)
		require.True(t, vcerror.IsKind(err, vcerror.MissingKeyType))
	})

	t.Run("no key field", func(t *testing.T) {
		_, err := vermethod.KeyFromDocument(map[string]interface{}{"type": "JsonWebKey2020"}, "", vmID)
		require.True(t, vcerror.IsKind(err, vcerror.UnsupportedKeyFormat))
	})
}
