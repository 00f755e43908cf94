// Package ipc exposes daemon control over JSON-RPC on a Unix domain socket.
//
// The service surface covers entity CRUD, action routing, status, event
// replay, and asset cache maintenance. Clients are expected to be short
// lived: dial, call, close.
package ipc
