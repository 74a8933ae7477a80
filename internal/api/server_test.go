package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sycamore/backend/pkg/config"
	"github.com/wonny/sycamore/backend/pkg/logger"
)

func TestServer_StartShutdown(t *testing.T) {
	cfg := &config.Config{Port: "0", Env: "development"}
	router := http.NewServeMux()
	srv := New(cfg, logger.Nop(), router)
	assert.NotNil(t, srv.Handler())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
