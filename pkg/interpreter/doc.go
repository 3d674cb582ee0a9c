// Package interpreter provides the session client for a speech translation
// websocket endpoint.
//
// A Client opens one connection, sends language selections as JSON text
// frames, and routes each inbound frame to the transcript (translation and
// status text) and to an audio player (base64 clips). There is no reconnect:
// once the connection closes or fails the client stays in that state.
package interpreter
