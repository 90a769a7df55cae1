// Package shutdown coordinates graceful process termination.
//
// Hooks are registered by name as components start and run in reverse
// order once SIGINT or SIGTERM arrives, all under one deadline:
//
//	h := shutdown.NewHandler(15*time.Second, log)
//	h.OnShutdown("http_server", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
