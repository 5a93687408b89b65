// Package timeouts holds the HTTP server deadlines shared by commands.
package timeouts

import "time"

// ReadHeader limits how long the server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long in-flight requests may run during graceful shutdown.
const Shutdown = 5 * time.Second

// Idle closes keep-alive connections that stay quiet this long.
const Idle = 60 * time.Second
