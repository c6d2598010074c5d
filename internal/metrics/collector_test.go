package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector_CountsCommands(t *testing.T) {
	c := NewCollector()

	c.CommandHandled("/whoshere", "ok")
	c.CommandHandled("/whoshere", "ok")
	c.CommandHandled("", "dropped")
	c.CommandHandled("/whatever", "unknown")

	require.Equal(t, 2.0, testutil.ToFloat64(c.commands.WithLabelValues("/whoshere", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.commands.WithLabelValues("none", "dropped")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.commands.WithLabelValues("other", "unknown")))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `whoshere_commands_total{command="/whoshere",outcome="ok"} 2`)
}
