// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
)

type sessionIDInput struct {
	ID string `path:"id" maxLength:"128" example:"viewer-1234" doc:"Session id"`
}

type sessionBody struct {
	ID                 string `json:"session_id" doc:"Session id"`
	OriginURL          string `json:"origin_url" doc:"Origin URL bound to the session"`
	CreatedAtEpochS    int64  `json:"created_at_epoch_s" doc:"Creation time (epoch seconds)"`
	LastAccessedEpochS int64  `json:"last_accessed_epoch_s" doc:"Last access time (epoch seconds)"`
}

type sessionInfoResponse struct {
	Body sessionBody
}

type sessionDeleteResponse struct {
	Body sessionBody
}

func createGetSessionHdlr(s *Server) func(ctx context.Context, input *sessionIDInput) (*sessionInfoResponse, error) {
	return func(ctx context.Context, input *sessionIDInput) (*sessionInfoResponse, error) {
		sess, ok, err := s.sessions.Get(ctx, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError(fmt.Sprintf("session lookup: %s", err))
		}
		if !ok {
			return nil, huma.Error404NotFound(fmt.Sprintf("session %s not found", input.ID))
		}
		resp := &sessionInfoResponse{}
		resp.Body = sessionBody{
			ID:                 sess.ID,
			OriginURL:          sess.OriginURL,
			CreatedAtEpochS:    sess.CreatedAt.Unix(),
			LastAccessedEpochS: sess.LastAccessed.Unix(),
		}
		return resp, nil
	}
}

func createDeleteSessionHdlr(s *Server) func(ctx context.Context, input *sessionIDInput) (*sessionDeleteResponse, error) {
	return func(ctx context.Context, input *sessionIDInput) (*sessionDeleteResponse, error) {
		sess, ok, err := s.sessions.Remove(ctx, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError(fmt.Sprintf("session remove: %s", err))
		}
		if !ok {
			return nil, huma.Error404NotFound(fmt.Sprintf("session %s not found", input.ID))
		}
		resp := &sessionDeleteResponse{}
		resp.Body = sessionBody{
			ID:                 sess.ID,
			OriginURL:          sess.OriginURL,
			CreatedAtEpochS:    sess.CreatedAt.Unix(),
			LastAccessedEpochS: sess.LastAccessed.Unix(),
		}
		return resp, nil
	}
}

func createRouteAPI(s *Server) func(r chi.Router) {
	return func(r chi.Router) {
		config := huma.DefaultConfig("Adstitch session API", "1.0.0")
		config.Servers = []*huma.Server{
			{URL: "/api"},
		}
		config.Info.Description = `Operational API for inspecting and removing
		active stitching sessions.`

		api := humachi.New(r, config)

		huma.Register(api, huma.Operation{
			OperationID: "get-session",
			Method:      http.MethodGet,
			Path:        "/sessions/{id}",
			Summary:     "Get information about a stitching session",
			Tags:        []string{"sessions"},
			Errors:      []int{404},
		}, createGetSessionHdlr(s))

		huma.Register(api, huma.Operation{
			OperationID: "delete-session",
			Method:      http.MethodDelete,
			Path:        "/sessions/{id}",
			Summary:     "Remove a stitching session",
			Description: "Remove the session and get back its final state.",
			Tags:        []string{"sessions"},
			Errors:      []int{404},
		}, createDeleteSessionHdlr(s))
	}
}
