package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	doc, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", Version())

	for _, path := range []string{"/healthz", "/info", "/status", "/report", "/checklists", "/events", "/metrics", "/openapi.yaml"} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}
}

func TestNewRouter(t *testing.T) {
	router, err := NewRouter()
	require.NoError(t, err)

	route, _, err := router.FindRoute(httptest.NewRequest("POST", "/checklists", nil))
	require.NoError(t, err)
	assert.Equal(t, "startChecklist", route.Operation.OperationID)

	_, _, err = router.FindRoute(httptest.NewRequest("DELETE", "/checklists", nil))
	assert.Error(t, err)
}
