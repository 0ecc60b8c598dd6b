// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillAdapter implements watermill.LoggerAdapter on top of zerolog.
// Watermill's info output is chatty, so Info maps to debug unless
// verbose is set.
type WatermillAdapter struct {
	logger  zerolog.Logger
	fields  watermill.LogFields
	verbose bool
}

// NewWatermillAdapter wraps a zerolog logger for use by Watermill publishers,
// subscribers and routers.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewWatermillAdapter(logger zerolog.Logger, verbose bool) *WatermillAdapter {
	return &WatermillAdapter{logger: logger, verbose: verbose}
}

// Error logs at error level.
func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.event(a.logger.Error().Err(err), fields).Msg(msg)
}

// Info logs at info level when verbose, debug otherwise.
func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	if a.verbose {
		a.event(a.logger.Info(), fields).Msg(msg)
		return
	}
	a.event(a.logger.Debug(), fields).Msg(msg)
}

// Debug logs at debug level.
func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.event(a.logger.Debug(), fields).Msg(msg)
}

// Trace logs at trace level.
func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.event(a.logger.Trace(), fields).Msg(msg)
}

// With returns an adapter that adds fields to every entry.
func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{
		logger:  a.logger,
		fields:  a.fields.Add(fields),
		verbose: a.verbose,
	}
}

func (a *WatermillAdapter) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	if len(a.fields) > 0 {
		e = e.Fields(map[string]interface{}(a.fields))
	}
	if len(fields) > 0 {
		e = e.Fields(map[string]interface{}(fields))
	}
	return e
}
