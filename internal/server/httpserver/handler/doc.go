// Package handler provides the HTTP route handlers of monitored-app.
//
// The routes stand in for real work: /slow, /db and /cache wait for a
// random delay before answering, /metrics serves the registry exposition and
// /health reports liveness. Every route writes a log record describing what
// it did.
package handler
