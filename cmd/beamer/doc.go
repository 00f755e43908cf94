// Command beamer is the control CLI for the beamer daemon. It talks to
// beamerd over the IPC socket: entity CRUD, action invocation, status,
// event replay, and asset cache maintenance.
package main
