// Package relay maintains the websocket connection to the upstream event
// relay. The wire protocol is item-oriented: both directions exchange
// "ws:m:event" frames carrying SET/DEL changes for typed items, and the
// relay issues "ws:m:command" frames for client-id assignment and remote
// action execution.
//
// The client re-dials on failure, announces the service and re-registers
// every entity target after each (re)connect, and queues outbound frames so
// the engine goroutine never blocks on the network.
package relay
