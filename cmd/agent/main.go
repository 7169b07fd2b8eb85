package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/benmeehan/telemetry-agent/internal/sensors"
	"github.com/benmeehan/telemetry-agent/internal/service_registry"
	"github.com/benmeehan/telemetry-agent/internal/services"
	"github.com/benmeehan/telemetry-agent/internal/utils"
	"github.com/benmeehan/telemetry-agent/pkg/application"
	"github.com/benmeehan/telemetry-agent/pkg/encryption"
	"github.com/benmeehan/telemetry-agent/pkg/file"
	"github.com/benmeehan/telemetry-agent/pkg/identity"
	"github.com/benmeehan/telemetry-agent/pkg/mqtt"
	"github.com/benmeehan/telemetry-agent/pkg/signalk"
	"github.com/benmeehan/telemetry-agent/pkg/store"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Set up structured logging with JSON output
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Persistent blob store, encrypted at rest when a key is configured
	var kv store.KVStore
	fileStore, err := store.NewFileStore(config.Store.Dir, fileClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open blob store")
	}
	kv = fileStore
	if config.Store.AESKeyFile != "" {
		encryptionManager, err := encryption.NewEncryptionManagerFromFile(config.Store.AESKeyFile, fileClient)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create encryption manager")
		}
		kv = store.NewEncryptedStore(fileStore, encryptionManager)
	}

	// Sensors, in registration order
	sensorRegistry, err := sensors.Build(config, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build sensors")
	}
	app := application.New()
	for _, s := range sensorRegistry.Sensors() {
		app.Register(s)
	}
	log.Info().Int("sensors", app.Len()).Msg("Sensors registered")

	consumer := services.NewConsumerService(config.Consumer.PollInterval, sensorRegistry.Feeds(), log)

	deviceInfo := identity.NewDeviceInfo(config.SignalK.ClientID, config.SignalK.Description, kv, log)
	session := services.NewTelemetrySession(
		services.SessionConfig{
			Auth: signalk.Config{
				ServerRoot:    config.SignalK.ServerRoot,
				ValidateToken: config.SignalK.ValidateToken,
				PollInterval:  config.SignalK.PollInterval,
			},
			MinServerVersion: config.SignalK.MinServerVersion,
			StreamEnabled:    config.SignalK.StreamEnabled,
			ReconnectDelay:   config.SignalK.PollInterval,
		},
		deviceInfo,
		signalk.NewHTTPClient(config.SignalK.RequestTimeout),
		kv,
		signalk.NewStreamClient(config.SignalK.RequestTimeout, log),
		consumer,
		log,
	)

	// Device authorization blocks until the server operator decides; SIGINT aborts it
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := session.Bootstrap(ctx); err != nil {
		sensorRegistry.Close()
		log.Fatal().Err(err).Msg("Device authorization failed")
	}

	// Optional MQTT mirror of every reading
	var mqttClient mqtt.MQTTClient
	if config.MQTT.Enabled {
		clientID := config.MQTT.ClientID + "-" + uuid.New().String()
		mqttService := mqtt.NewMqttService(fileClient)
		if err := mqttService.Initialize(config.MQTT.Broker, clientID, config.MQTT.CACertificate); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
		}
		log.Info().Str("client_id", clientID).Msg("MQTT connection established")
		mqttClient = mqttService
		defer mqttService.Disconnect(250)
	}

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(log)
	serviceRegistry.RegisterServices(config, app, consumer, session, mqttClient, deviceInfo.GetClientID())

	if err := serviceRegistry.StartServices(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start services")
	}
	log.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down gracefully...")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := serviceRegistry.StopServices(); err != nil {
			log.Error().Err(err).Msg("Failed to stop services cleanly")
		}
		sensorRegistry.Close()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Shutdown timed out")
	}
}
