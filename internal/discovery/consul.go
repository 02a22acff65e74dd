package discovery

import (
	"fmt"
	"strconv"

	"practice-service/internal/config"
	"practice-service/internal/logger"

	"github.com/hashicorp/consul/api"
)

type ServiceRegistry struct {
	client *api.Client
	server config.ServerConfig
	log    *logger.Logger
}

// NewServiceRegistry returns nil when no consul address is configured.
func NewServiceRegistry(consul config.ConsulConfig, server config.ServerConfig, log *logger.Logger) (*ServiceRegistry, error) {
	if consul.ConsulAddress == "" {
		return nil, nil
	}

	consulConfig := api.DefaultConfig()
	consulConfig.Address = consul.ConsulAddress

	client, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}

	return &ServiceRegistry{
		client: client,
		server: server,
		log:    log.With("component", "discovery"),
	}, nil
}

func (sr *ServiceRegistry) Register() error {
	port, err := strconv.Atoi(sr.server.Port)
	if err != nil {
		return fmt.Errorf("invalid service port %q: %w", sr.server.Port, err)
	}
	registration := &api.AgentServiceRegistration{
		ID:      sr.server.ServiceID,
		Name:    sr.server.ServiceName,
		Port:    port,
		Address: sr.server.ServiceAddress,
		Check: &api.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%s/health", sr.server.ServiceAddress, sr.server.Port),
			Interval: "10s",
			Timeout:  "5s",
		},
		Tags: []string{"practice", "adaptive"},
	}

	if err := sr.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service with Consul: %w", err)
	}

	sr.log.Info("registered service with Consul", "service_id", sr.server.ServiceID)
	return nil
}

// Deregister removes the service from Consul
func (sr *ServiceRegistry) Deregister() error {
	return sr.client.Agent().ServiceDeregister(sr.server.ServiceID)
}
