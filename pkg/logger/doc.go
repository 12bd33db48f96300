// Package logger builds log/slog loggers from functional options and provides
// attribute helpers that keep key names consistent across the upload
// pipeline.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "media-api"),
//	    logger.WithContextValue("request_id", ctxKeyRequestID),
//	)
//
//	up, err := file.New(ctx, cfg, file.WithLogger(log))
//
// Records then carry attributes such as component, provider, public_id,
// mime_type and size.
//
// # Configuration
//
//   - WithEnvironment / WithDevelopment / WithProduction: level and format presets.
//   - WithFormat / WithTextFormatter / WithJSONFormatter: output format.
//   - WithLevel, WithOutput, WithAttr.
//   - WithContextExtractors / WithContextValue: attributes taken from context.
//
// Error returns an empty attribute for a nil error, so it can be passed
// unconditionally.
package logger
