// Package config loads environment variables into typed configuration structs.
//
// Each package in this module declares its own Config struct with `env` tags
// (see pg.Config, email.Config, billing.PayPalConfig). Load parses one of them:
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// A .env file in the working directory is read once per process before the
// first parse; variables already present in the environment win. Parsed
// values are cached per type, so repeated loads of the same struct are cheap
// and consistent for the process lifetime. Use Reset in tests that change the
// environment between cases.
package config
