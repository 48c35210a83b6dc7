/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logging holds the module wide logrus entry.
package logging

import "github.com/sirupsen/logrus"

var logger *logrus.Entry //nolint:gochecknoglobals

// Fields is an alias of logrus.Fields.
type Fields = logrus.Fields

func init() { //nolint:gochecknoinits
	if logger == nil {
		logger = logrus.NewEntry(logrus.New()).WithField("module", "vc-offline-verifier")
	}
}

// SetLevel sets the level of the shared logger.
func SetLevel(l logrus.Level) {
	logger.Logger.SetLevel(l)
}

// Entry returns the shared entry.
func Entry() *logrus.Entry {
	return logger
}

// WithError returns the shared entry with an error field.
func WithError(e error) *logrus.Entry {
	return logger.WithError(e)
}
