/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trustbloc/vc-offline-verifier/internal/logging"
	"github.com/trustbloc/vc-offline-verifier/proof/checker"
	"github.com/trustbloc/vc-offline-verifier/verifiable/lddocument"
	"github.com/trustbloc/vc-offline-verifier/vermethod"
)

// dateTolerance absorbs clock skew between issuer and verifier.
const dateTolerance = 3 * time.Second

type options struct {
	keys          lddocument.KeyStore
	resolver      vermethod.KeyResolver
	loader        *lddocument.DocumentLoader
	dispatch      *checker.Dispatch
	statusChecker StatusChecker
	logger        logrus.FieldLogger
	now           func() time.Time
}

// Opt configures credential verifiers.
type Opt func(o *options)

// WithKeyStore sets the cached key material of linked data proof verification methods.
func WithKeyStore(keys lddocument.KeyStore) Opt {
	return func(o *options) {
		o.keys = keys
	}
}

// WithResolver sets the verification method resolver. It defaults to vermethod.NewResolver.
func WithResolver(resolver vermethod.KeyResolver) Opt {
	return func(o *options) {
		o.resolver = resolver
	}
}

// WithDocumentLoader sets the JSON-LD document loader of linked data proofs.
func WithDocumentLoader(loader *lddocument.DocumentLoader) Opt {
	return func(o *options) {
		o.loader = loader
	}
}

// WithDispatch sets the signature dispatch table.
func WithDispatch(dispatch *checker.Dispatch) Opt {
	return func(o *options) {
		o.dispatch = dispatch
	}
}

// WithStatusChecker enables revocation checks of verified credentials.
func WithStatusChecker(sc StatusChecker) Opt {
	return func(o *options) {
		o.statusChecker = sc
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Opt {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock sets the time source of date checks.
func WithClock(now func() time.Time) Opt {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Opt) *options {
	o := &options{
		logger: logging.Entry(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.dispatch == nil {
		o.dispatch = checker.NewDispatch()
	}

	if o.resolver == nil {
		o.resolver = vermethod.NewResolver(vermethod.WithLogger(o.logger))
	}

	return o
}
