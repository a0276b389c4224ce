// Package httpserver runs an http.Server until its context is cancelled and
// then shuts it down gracefully.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    log.Error("server failed", logger.Error(err))
//	}
//
// LivenessHandler and ReadinessHandler provide probe endpoints; readiness
// runs named dependency checks such as the session backend's ping.
package httpserver
