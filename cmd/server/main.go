package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/db"
	iotHttp "liyu1981.xyz/coldchain-monitor/pkg/http"
	"liyu1981.xyz/coldchain-monitor/pkg/iot"
	"liyu1981.xyz/coldchain-monitor/pkg/modbus"
	iotMqtt "liyu1981.xyz/coldchain-monitor/pkg/mqtt"
)

const shutdownTimeout = 10 * time.Second

func mustEnvInt(key string, def int) int {
	v, err := common.GetEnvInt(key, def)
	if err != nil {
		log.Fatalf("Invalid %s, should be an int value: %v", key, err)
	}
	return v
}

func main() {
	var err error

	err = godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file, copy .env.example to .env first if in development")
	}
	defer common.SyncLogger()

	var dbInstance *db.DB
	dbType := os.Getenv(common.EnvKeyMonitorDBType)
	switch dbType {
	case "file":
		dbInstance = db.GetInstance(db.UseSqliteDialector())
	case "memory":
		dbInstance = db.GetInstance(db.UseMemorySqliteDialector())
	default:
		log.Fatal("Unknown MONITOR_DB_TYPE: " + dbType)
	}

	httpHostPort := strings.TrimSpace(os.Getenv(common.EnvKeyMonitorHttpHostPort))

	var defaultRate float64
	var defaultBurst int64

	if defaultRate, err = strconv.ParseFloat(os.Getenv(common.EnvKeyMonitorDefaultRate), 64); err != nil {
		log.Fatal("Invalid MONITOR_DEFAULT_RATE, or not set in .env, should be a float64 value")
	}

	if defaultBurst, err = strconv.ParseInt(os.Getenv(common.EnvKeyMonitorDefaultBurst), 10, 64); err != nil {
		log.Fatal("Invalid MONITOR_DEFAULT_BURST, or not set in .env, should be an int value")
	}

	refreshSeconds := mustEnvInt(common.EnvKeyMonitorRefreshSeconds, 30)
	if refreshSeconds <= 0 {
		log.Fatal("Invalid MONITOR_REFRESH_SECONDS, should be positive")
	}
	maxWorkers := mustEnvInt(common.EnvKeyMonitorMaxWorkers, iot.DefaultMaxWorkers)
	engineOpts, err := iot.EngineOptionsFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	logger := common.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := modbus.NewPool()
	defer pool.Close()
	probe := iot.NewModbusProbe(pool)

	iotCore := iot.NewIOT(dbInstance)
	iotCore.WithServices(iot.ServiceOpts{Probe: probe})

	broker := common.GetEnvString(common.EnvKeyMonitorMqttBroker, "")
	topicPrefix := common.GetEnvString(common.EnvKeyMonitorMqttTopicPrefix, "coldchain")
	var mqttClient paho.Client
	if broker != "" {
		client, err := iotMqtt.NewClient(iotMqtt.ClientConfig{
			Broker:   broker,
			ClientID: common.GetEnvString(common.EnvKeyMonitorMqttClientID, "coldchain-monitor"),
		})
		if err != nil {
			log.Fatalf("mqtt: %v", err)
		}
		mqttClient = client

		publisher := iotMqtt.NewPublisher(client, iotMqtt.PublisherConfig{TopicPrefix: topicPrefix})
		go publisher.Start(ctx)
		iotCore.WithServices(iot.ServiceOpts{Publisher: publisher})

		logger.Info("MQTT fan-out enabled", zap.String("broker", broker), zap.String("topic_prefix", topicPrefix))
	}

	engine, err := iot.NewEngine(iotCore, engineOpts)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	devices, err := iotCore.Device.ListDevices()
	if err != nil {
		log.Fatalf("failed to load devices: %v", err)
	}
	if err := engine.RefreshThresholds(); err != nil {
		log.Fatalf("failed to load thresholds: %v", err)
	}
	if err := engine.Warmup(ctx, devices); err != nil {
		log.Fatalf("warm-up failed: %v", err)
	}

	scheduler, err := iot.NewScheduler(ctx, engine, probe, iot.SchedulerOptions{
		MaxWorkers: maxWorkers,
		OnRemoved:  engine.Forget,
	})
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	registry := iot.NewRegistry(iotCore.Device, engine, scheduler)
	if err := registry.Refresh(ctx); err != nil {
		log.Fatalf("initial registry refresh failed: %v", err)
	}
	go registry.Run(ctx, time.Duration(refreshSeconds)*time.Second)

	if mqttClient != nil {
		changes := iotMqtt.NewChangeSubscriber(mqttClient, topicPrefix, registry.Refresh)
		if err := changes.Subscribe(); err != nil {
			log.Fatalf("mqtt subscribe: %v", err)
		}
		go changes.Run(ctx)
	}

	if httpHostPort == "" {
		// fallback to default http port
		httpHostPort = ":1080"
	}

	rs := &iotHttp.RestfulServer{
		Server:           gin.Default(),
		Iot:              iotCore,
		RateLimiterStore: iot.NewRateLimiterStore(rate.Limit(defaultRate), int(defaultBurst)),
		Engine:           engine,
		Registry:         registry,
	}
	rs.Setup()

	logger.Info("http server created with:",
		zap.String("default_limiter",
			fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", defaultRate, defaultBurst)),
		zap.Int("max_workers", maxWorkers),
		zap.Int("devices", len(devices)))

	srv := &http.Server{Addr: httpHostPort, Handler: rs.Server}
	go func() {
		logger.Info("Starting HTTP server on: " + httpHostPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed to serve: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}

	// in-flight polls finish and store their readings before the connections close
	scheduler.Stop()

	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}
}
