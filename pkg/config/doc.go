// Package config loads typed configuration from environment variables.
//
// Structs are annotated with caarlos0/env tags; Load parses them once per
// type and caches the result, so the session store, the backends and the HTTP
// server all read one consistent snapshot. A .env file in the working
// directory is applied on first use (existing variables win); LoadEnv reads
// additional dotenv files explicitly.
//
//	var cfg session.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// ResetCache exists for tests that change the environment between loads.
package config
