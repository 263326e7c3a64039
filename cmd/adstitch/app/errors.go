// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// errKind partitions failures by where they surfaced, with a fixed
// HTTP status per kind.
type errKind int

const (
	errInternal errKind = iota
	errOriginFetch
	errPlaylistParse
	errMpdParse
	errPlaylistModify
	errInvalidSessionID
	errInvalidOrigin
	errConfig
	errConversion
)

func (k errKind) httpStatus() int {
	switch k {
	case errOriginFetch:
		return http.StatusBadGateway
	case errPlaylistParse, errMpdParse:
		return http.StatusUnprocessableEntity
	case errInvalidSessionID, errInvalidOrigin:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (k errKind) String() string {
	switch k {
	case errOriginFetch:
		return "origin fetch error"
	case errPlaylistParse:
		return "playlist parse error"
	case errMpdParse:
		return "mpd parse error"
	case errPlaylistModify:
		return "playlist modify error"
	case errInvalidSessionID:
		return "invalid session id"
	case errInvalidOrigin:
		return "invalid origin"
	case errConfig:
		return "config error"
	case errConversion:
		return "conversion error"
	default:
		return "internal error"
	}
}

type stitchError struct {
	kind errKind
	msg  string
	err  error
}

func (e *stitchError) Error() string {
	switch {
	case e.msg != "" && e.err != nil:
		return fmt.Sprintf("%s: %s: %s", e.kind, e.msg, e.err)
	case e.err != nil:
		return fmt.Sprintf("%s: %s", e.kind, e.err)
	default:
		return fmt.Sprintf("%s: %s", e.kind, e.msg)
	}
}

func (e *stitchError) Unwrap() error { return e.err }

func newOriginFetchError(err error) *stitchError {
	return &stitchError{kind: errOriginFetch, err: err}
}

func newPlaylistParseError(err error) *stitchError {
	return &stitchError{kind: errPlaylistParse, err: err}
}

func newMpdParseError(err error) *stitchError {
	return &stitchError{kind: errMpdParse, err: err}
}

func newInvalidSessionIDError(msg string) *stitchError {
	return &stitchError{kind: errInvalidSessionID, msg: msg}
}

func newInvalidOriginError(err error) *stitchError {
	return &stitchError{kind: errInvalidOrigin, err: err}
}

func newConfigError(msg string) *stitchError {
	return &stitchError{kind: errConfig, msg: msg}
}

func newInternalError(msg string) *stitchError {
	return &stitchError{kind: errInternal, msg: msg}
}

// writeError converts err to its HTTP response. Invalid-origin errors
// get a generic message so blocked addresses are never echoed back.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var se *stitchError
	if !errors.As(err, &se) {
		se = &stitchError{kind: errInternal, err: err}
	}
	status := se.kind.httpStatus()
	log.Error("Request failed", "err", se.Error(), "status", status)
	msg := se.Error()
	if se.kind == errInvalidOrigin {
		msg = "invalid origin"
	}
	http.Error(w, msg, status)
}
