package launcher

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/directus-ops/cmsctl/internal/cmstest"
	"github.com/directus-ops/cmsctl/pkg/directus"
)

func TestWaiterReady(t *testing.T) {
	cms := cmstest.New(t)
	cms.Fail(http.MethodGet, "/server/health", http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "starting")

	var progress bytes.Buffer
	w := Waiter{Client: directus.New(cms.URL()), Retries: 5, Interval: 10 * time.Millisecond, Progress: &progress}

	require.NoError(t, w.Wait(context.Background()))
	assert.Equal(t, ".\n", progress.String())
	assert.Equal(t, 2, cms.CountRequests(http.MethodGet, "/server/health"))
}

func TestWaiterGivesUp(t *testing.T) {
	var progress bytes.Buffer
	w := Waiter{Client: directus.New("http://127.0.0.1:1"), Retries: 3, Interval: time.Millisecond, Progress: &progress}

	err := w.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready after 3 attempts")
	assert.Equal(t, "...\n", progress.String())
}
