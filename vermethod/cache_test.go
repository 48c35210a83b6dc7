/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vermethod_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/internal/mock/httpclient"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
	"github.com/trustbloc/vc-offline-verifier/vermethod"
)

func TestCachingResolver(t *testing.T) {
	key := &pubkey.PublicKey{Type: pubkey.Ed25519, BytesKey: &pubkey.BytesKey{Bytes: make([]byte, 32)}}

	t.Run("second resolution is served from cache", func(t *testing.T) {
		next := httpclient.NewMockKeyResolver(gomock.NewController(t))
		next.EXPECT().Resolve(gomock.Any(), "did:web:example.com#0").Return(key, nil).Times(1)

		r := vermethod.NewCachingResolver(next, 8, time.Minute)

		for i := 0; i < 3; i++ {
			got, err := r.Resolve(context.Background(), "did:web:example.com#0")
			require.NoError(t, err)
			require.Same(t, key, got)
		}
	})

	t.Run("errors are not cached", func(t *testing.T) {
		next := httpclient.NewMockKeyResolver(gomock.NewController(t))
		next.EXPECT().Resolve(gomock.Any(), "did:web:example.com#0").Return(nil, errors.New("offline")).Times(2)

		r := vermethod.NewCachingResolver(next, 8, time.Minute)

		for i := 0; i < 2; i++ {
			_, err := r.Resolve(context.Background(), "did:web:example.com#0")
			require.EqualError(t, err, "offline")
		}
	})

	t.Run("purge", func(t *testing.T) {
		next := httpclient.NewMockKeyResolver(gomock.NewController(t))
		next.EXPECT().Resolve(gomock.Any(), "did:web:example.com#0").Return(key, nil).Times(2)

		r := vermethod.NewCachingResolver(next, 8, time.Minute)

		_, err := r.Resolve(context.Background(), "did:web:example.com#0")
		require.NoError(t, err)

		r.Purge()

		_, err = r.Resolve(context.Background(), "did:web:example.com#0")
		require.NoError(t, err)
	})
}

func TestStaticResolver(t *testing.T) {
	key := &pubkey.PublicKey{Type: pubkey.Ed25519}

	r := vermethod.StaticResolver{"did:example:1#k": key}

	got, err := r.Resolve(context.Background(), "did:example:1#k")
	require.NoError(t, err)
	require.Same(t, key, got)

	_, err = r.Resolve(context.Background(), "did:example:2#k")
	require.True(t, vcerror.IsKind(err, vcerror.VerificationMethodNotFound))
}
