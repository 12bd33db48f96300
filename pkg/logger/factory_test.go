package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"log/slog"

	"github.com/dmitrymomot/uploadkit/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults to json at info", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Debug("dropped")
		log.Info("file stored", logger.PublicID("avatars/me.png"))

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "file stored", entry["msg"])
		assert.Equal(t, "avatars/me.png", entry["public_id"])
	})

	t.Run("last format option wins", func(t *testing.T) {
		t.Parallel()
		text := &bytes.Buffer{}
		logger.New(logger.WithOutput(text), logger.WithJSONFormatter(), logger.WithTextFormatter()).Warn("slow backend")
		assert.Contains(t, text.String(), "level=WARN")
		assert.Contains(t, text.String(), `msg="slow backend"`)

		js := &bytes.Buffer{}
		logger.New(logger.WithOutput(js), logger.WithTextFormatter(), logger.WithJSONFormatter()).Warn("slow backend")
		assert.Equal(t, "slow backend", decode(t, js)["msg"])
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithAttr(logger.Provider("s3"))).Info("ready")
		assert.Equal(t, "s3", decode(t, buf)["provider"])
	})

	t.Run("context extractors", func(t *testing.T) {
		t.Parallel()
		type tenantKey struct{}
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
				v, ok := ctx.Value(tenantKey{}).(string)
				return slog.String("tenant", v), ok
			}),
		)

		log.InfoContext(context.WithValue(context.Background(), tenantKey{}, "acme"), "upload accepted")
		assert.Equal(t, "acme", decode(t, buf)["tenant"])

		buf.Reset()
		log.InfoContext(context.Background(), "upload accepted")
		assert.NotContains(t, decode(t, buf), "tenant")
	})
}

func TestSetAsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	logger.SetAsDefault(logger.New(logger.WithOutput(buf)))
	slog.Info("via default")
	assert.Equal(t, "via default", decode(t, buf)["msg"])
}

func TestWithFormatPanics(t *testing.T) {
	assert.Panics(t, func() {
		logger.New(logger.WithFormat(logger.Format("xml")))
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("production logs json at info", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithProduction("media-api"))
		log.Debug("hidden")
		log.Info("visible")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "visible", entry["msg"])
		assert.Equal(t, "media-api", entry["service"])
		assert.Equal(t, logger.EnvProduction, entry["env"])
	})

	t.Run("aliases are normalized", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment("stage", ""))
		log.Info("msg")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, logger.EnvStaging, entry["env"])
		assert.NotContains(t, entry, "service")
	})

	t.Run("development logs text at debug", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithDevelopment("media-api"))
		log.Debug("debug line")

		out := buf.String()
		assert.Contains(t, out, "level=DEBUG")
		assert.Contains(t, out, "env=development")
	})

	t.Run("unknown falls back to development", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment("qa", "svc"))
		log.Debug("x")
		assert.Contains(t, buf.String(), "env=development")
	})
}

func TestWithContextValue(t *testing.T) {
	t.Parallel()

	type key struct{}
	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf), logger.WithContextValue("request_id", key{}))

	log.InfoContext(context.WithValue(context.Background(), key{}, "req-1"), "with")
	log.InfoContext(context.Background(), "without")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "req-1", first["request_id"])
	assert.NotContains(t, second, "request_id")
}

func TestContextHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	base := slog.NewJSONHandler(buf, nil)
	h := logger.NewContextHandler(base, func(context.Context) (slog.Attr, bool) {
		return slog.String("extra", "yes"), true
	})
	log := slog.New(h).With(logger.Component("uploader"))
	log.Info("msg")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "yes", entry["extra"])
	assert.Equal(t, "uploader", entry["component"])
}

func TestNewContextHandlerWithoutExtractors(t *testing.T) {
	t.Parallel()

	base := slog.NewJSONHandler(&bytes.Buffer{}, nil)
	assert.Same(t, base, logger.NewContextHandler(base, nil))
}
