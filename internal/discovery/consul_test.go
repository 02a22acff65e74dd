package discovery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"practice-service/internal/config"
	"practice-service/internal/logger"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	mu           sync.Mutex
	registered   []api.AgentServiceRegistration
	deregistered []string
}

func (a *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case r.URL.Path == "/v1/agent/service/register":
		var reg api.AgentServiceRegistration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a.registered = append(a.registered, reg)
	case strings.HasPrefix(r.URL.Path, "/v1/agent/service/deregister/"):
		a.deregistered = append(a.deregistered, strings.TrimPrefix(r.URL.Path, "/v1/agent/service/deregister/"))
	default:
		http.NotFound(w, r)
	}
}

func server() config.ServerConfig {
	return config.ServerConfig{
		Port:           "9350",
		ServiceName:    "practice-service",
		ServiceAddress: "practice-service",
		ServiceID:      "practice-service-1",
	}
}

func TestRegistryDisabledWithoutAddress(t *testing.T) {
	sr, err := NewServiceRegistry(config.ConsulConfig{}, server(), logger.NewNop())
	require.NoError(t, err)
	assert.Nil(t, sr)
}

func TestRegisterAndDeregister(t *testing.T) {
	agent := &fakeAgent{}
	ts := httptest.NewServer(agent)
	defer ts.Close()

	sr, err := NewServiceRegistry(config.ConsulConfig{ConsulAddress: strings.TrimPrefix(ts.URL, "http://")}, server(), logger.NewNop())
	require.NoError(t, err)
	require.NotNil(t, sr)

	require.NoError(t, sr.Register())
	require.NoError(t, sr.Deregister())

	require.Len(t, agent.registered, 1)
	reg := agent.registered[0]
	assert.Equal(t, "practice-service-1", reg.ID)
	assert.Equal(t, 9350, reg.Port)
	require.NotNil(t, reg.Check)
	assert.Equal(t, "http://practice-service:9350/health", reg.Check.HTTP)
	assert.Equal(t, []string{"practice-service-1"}, agent.deregistered)
}

func TestRegisterRejectsBadPort(t *testing.T) {
	cfg := server()
	cfg.Port = "http"
	sr, err := NewServiceRegistry(config.ConsulConfig{ConsulAddress: "127.0.0.1:1"}, cfg, logger.NewNop())
	require.NoError(t, err)
	assert.Error(t, sr.Register())
}
