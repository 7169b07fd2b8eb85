package service_registry

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telemetry-agent/internal/registry"
	"github.com/benmeehan/telemetry-agent/internal/services"
	"github.com/benmeehan/telemetry-agent/internal/utils"
	"github.com/benmeehan/telemetry-agent/pkg/mqtt"
)

// ServiceRegistry manages the lifecycle of the agent services.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new, empty service registry.
func NewServiceRegistry(logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]registry.Service),
		Logger:   logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// ServiceNames returns the registered service names in start order.
func (sr *ServiceRegistry) ServiceNames() []string {
	return append([]string(nil), sr.serviceKeys...)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices registers the agent services in start order: the
// consumer first so no reading is missed, then the producer, then the
// Signal K session. An MQTT client, when given, is added as a consumer output.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, app services.Ticker, consumer *services.ConsumerService,
	session *services.TelemetrySession, mqttClient mqtt.MQTTClient, clientID string) {

	if mqttClient != nil {
		consumer.AddOutput(services.NewMQTTOutput(mqttClient, config.MQTT.Topic, config.MQTT.QOS, clientID))
	}

	servicesInOrder := []struct {
		name    string
		enabled bool
		svc     registry.Service
	}{
		{name: "consumer", enabled: true, svc: consumer},
		{name: "scheduler", enabled: true, svc: services.NewSchedulerService(config.Scheduler.TickInterval, app, sr.Logger)},
		{name: "session", enabled: session != nil, svc: session},
	}

	registeredServices := []string{}
	for _, s := range servicesInOrder {
		if s.enabled {
			sr.RegisterService(s.name, s.svc)
			registeredServices = append(registeredServices, s.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
}
