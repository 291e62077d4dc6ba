package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyMonitorDBType string = "MONITOR_DB_TYPE"
	EnvKeyMonitorDbPath string = "MONITOR_DB_PATH"

	EnvKeyMonitorHttpHostPort string = "MONITOR_HTTP_HOST_PORT"

	EnvKeyMonitorDefaultRate  string = "MONITOR_DEFAULT_RATE"
	EnvKeyMonitorDefaultBurst string = "MONITOR_DEFAULT_BURST"

	EnvKeyMonitorRefreshSeconds      string = "MONITOR_REFRESH_SECONDS"
	EnvKeyMonitorMaxWorkers          string = "MONITOR_MAX_WORKERS"
	EnvKeyMonitorWarmupReadings      string = "MONITOR_WARMUP_READINGS"
	EnvKeyMonitorUnreachableFailures string = "MONITOR_UNREACHABLE_FAILURES"

	EnvKeyMonitorMqttBroker      string = "MONITOR_MQTT_BROKER"
	EnvKeyMonitorMqttClientID    string = "MONITOR_MQTT_CLIENT_ID"
	EnvKeyMonitorMqttTopicPrefix string = "MONITOR_MQTT_TOPIC_PREFIX"

	EnvKeyMonitorLogDir string = "MONITOR_LOG_DIR"

	LoggerNameMonitorCore   string = "monitor_core"
	LoggerNameRestfulServer string = "restful_server"
	LoggerFieldCategory     string = "category"

	LoggerCategoryRegistry  string = "registry"
	LoggerCategoryProtocol  string = "protocol"
	LoggerCategoryThreshold string = "threshold"
	LoggerCategoryExcursion string = "excursion"
	LoggerCategoryScheduler string = "scheduler"
	LoggerCategoryAction    string = "action"
	LoggerCategoryReading   string = "reading"
	LoggerCategoryWarmup    string = "warmup"
	LoggerCategoryMqtt      string = "mqtt"
)
