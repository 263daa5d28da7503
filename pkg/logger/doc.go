// Package logger builds configured *slog.Logger instances and provides typed
// attribute helpers for the domain vocabulary of the delivery engine
// (notification IDs, channels, categories).
//
// Components in this module accept a *slog.Logger through functional options
// and fall back to slog.Default(); this package is how process entry points
// construct the logger they inject.
//
//	log := logger.New(
//	    logger.WithFormat(logger.FormatJSON),
//	    logger.WithLevel(slog.LevelInfo),
//	    logger.WithAttr(slog.String("service", "notify")),
//	)
//	slog.SetDefault(log)
package logger
