/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package bitstring provides functions for operating on byte slices as if they are 0-indexed arrays of bits,
// packed 8 bits to a byte.
package bitstring

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"

	"github.com/trustbloc/vc-offline-verifier/util/codec"
)

const (
	bitsPerByte = 8
	one         = 0x1
	msbFirst    = 7
)

// Decode decodes a gzip compressed bitstring from a base64url or multibase string.
func Decode(src string, opts ...Opt) ([]byte, error) {
	options := &options{}

	for _, opt := range opts {
		opt(options)
	}

	var (
		decodedBits []byte
		err         error
	)

	if options.multiBaseEncoding {
		decodedBits, err = codec.DecodeMultibase(src)
	} else {
		decodedBits, err = codec.DecodeBase64URL(src)
	}

	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	zipReader, err := gzip.NewReader(bytes.NewReader(decodedBits))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(zipReader); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// BitAt returns the bit in the idx'th position (zero-indexed) in the given bitstring.
// Status lists index bits from the most significant bit of the first byte.
func BitAt(bitString []byte, idx int) (bool, error) {
	nByte := idx / bitsPerByte
	nBit := idx % bitsPerByte

	if idx < 0 || nByte >= len(bitString) {
		return false, errors.New("position is invalid")
	}

	return (bitString[nByte] & (one << (msbFirst - nBit))) != 0, nil
}

// Encode gzips a bitstring and encodes it as a raw urlsafe base-64 string, or as
// base64url multibase when WithMultiBaseEncoding is set.
func Encode(bitString []byte, opts ...Opt) (string, error) {
	options := &options{}

	for _, opt := range opts {
		opt(options)
	}

	var buf bytes.Buffer

	w := gzip.NewWriter(&buf)
	if _, err := w.Write(bitString); err != nil {
		return "", err
	}

	if err := w.Close(); err != nil {
		return "", err
	}

	encoded := codec.EncodeBase64URL(buf.Bytes())
	if options.multiBaseEncoding {
		return "u" + encoded, nil
	}

	return encoded, nil
}

// Opt configures Decode and Encode.
type Opt func(*options)

type options struct {
	multiBaseEncoding bool
}

// WithMultiBaseEncoding sets support of multiBase encoding.
func WithMultiBaseEncoding(multiBaseEncoding bool) Opt {
	return func(options *options) {
		options.multiBaseEncoding = multiBaseEncoding
	}
}
