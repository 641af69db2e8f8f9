// Package shutdown releases process resources when indy-cli ends.
//
// Hooks run exactly once: from Shutdown on a normal exit, or when SIGINT
// or SIGTERM arrives while Listen is active.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(func(context.Context) error { return sess.Close() })
//	stop := h.Listen(func(os.Signal) { os.Exit(130) })
//	defer stop()
//	defer h.Shutdown()
package shutdown
