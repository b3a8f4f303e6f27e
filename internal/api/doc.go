// Package api implements the HTTP REST API and WebSocket server for psusim.
//
// This package provides:
//   - REST endpoints to inspect supplies and write their properties
//   - Endpoints to read and update the configuration parameters
//   - The change journal per supply, when the database is enabled
//   - A WebSocket hub streaming "supply.changed" events to clients that
//     watch a supply by name or kind
//   - JWT bearer authentication
//
// # Security
//
// When security.jwt.secret is empty the API is open, which suits a local
// test rig. With a secret configured, every route but health requires a
// token whose role grants the matching permission (see package auth): viewer
// tokens read, operator tokens also write. The WebSocket handshake may carry
// the token as ?access_token= since browsers cannot set its headers.
//
// Property writes go through the simulator's access policy: the API never
// bypasses it.
package api
