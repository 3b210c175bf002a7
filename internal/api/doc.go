// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the HealthMate backend.
//
// There is one method per backend endpoint. Methods never retry: every
// failure is returned to the caller, which decides whether the user sees it.
//
// # Key Types
//
//   - Client: rate-limited HTTP client with structured request logging
//   - APIError: non-2xx response carrying the backend's detail string
//   - ChatRequest / ChatResponse: one chat exchange
//
// # Errors
//
// Transport failures wrap ErrNetwork. Responses with status 401 or 403
// match ErrUnauthorized via errors.Is. Any other non-2xx status is an
// *APIError whose Detail is shown to the user verbatim.
//
// # Usage
//
//	client := api.New(api.Options{BaseURL: cfg.API.BaseURL, Logger: logger})
//	creds, err := client.Login(ctx, "ann@example.com", "secret")
//	resp, err := client.Chat(ctx, creds.Token, api.ChatRequest{Text: "I have a headache"})
package api
