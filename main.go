package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/ledd/cmd"
	"github.com/smazurov/ledd/internal/config"
	"github.com/smazurov/ledd/internal/logging"
	"github.com/smazurov/ledd/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"/etc/ledd/config.toml"`

	// Server settings
	Port string `help:"Address to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings; empty disables auth
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// LED settings
	BackendType string `help:"LED backend (auto, sysfs, gpio, serial, sim)" default:"auto" toml:"backend.type" env:"BACKEND_TYPE"`
	PatternsDir string `help:"Pattern definitions directory" default:"/etc/config/led_patterns" toml:"definitions.patterns_dir" env:"PATTERNS_DIR"`
	AliasesDir  string `help:"Alias definitions directory" default:"/etc/config/led_aliases" toml:"definitions.aliases_dir" env:"ALIASES_DIR"`

	ReloadEnabled  bool   `help:"Reload definitions when their files change" default:"true" toml:"definitions.reload" env:"RELOAD_ENABLED"`
	ReloadDebounce string `help:"How long definition changes settle before a reload" default:"1500ms" toml:"definitions.reload_debounce" env:"RELOAD_DEBOUNCE"`

	// MQTT settings; an empty broker disables the bridge
	MqttBroker   string `help:"MQTT broker URL, e.g. tcp://localhost:1883" default:"" toml:"mqtt.broker" env:"MQTT_BROKER"`
	MqttPrefix   string `help:"MQTT topic prefix" default:"ledd" toml:"mqtt.prefix" env:"MQTT_PREFIX"`
	MqttQos      int    `help:"MQTT QoS (0-2)" default:"0" toml:"mqtt.qos" env:"MQTT_QOS"`
	MqttClientID string `help:"MQTT client ID" default:"ledd" toml:"mqtt.client_id" env:"MQTT_CLIENT_ID"`
	MqttUsername string `help:"MQTT username" default:"" toml:"mqtt.username" env:"MQTT_USERNAME"`
	MqttPassword string `help:"MQTT password" default:"" toml:"mqtt.password" env:"MQTT_PASSWORD"`

	MetricsEnabled bool   `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`
	PidFile        string `help:"Single instance lock file" default:"/var/run/ledd.pid" toml:"daemon.pid_file" env:"PID_FILE"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLED     string `help:"LED registry logging level" default:"" toml:"logging.led" env:"LOGGING_LED"`
	LoggingPattern string `help:"Pattern engine logging level" default:"" toml:"logging.pattern" env:"LOGGING_PATTERN"`
	LoggingBackend string `help:"LED backend logging level" default:"" toml:"logging.backend" env:"LOGGING_BACKEND"`
	LoggingAPI     string `help:"API logging level" default:"" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP    string `help:"HTTP request logging level" default:"" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingMqtt    string `help:"MQTT logging level" default:"" toml:"logging.mqtt" env:"LOGGING_MQTT"`
	LoggingConfig  string `help:"Definition loading logging level" default:"" toml:"logging.config" env:"LOGGING_CONFIG"`
}

// loggingConfig maps the logging options over fileModules, the module
// levels of the config file's [logging] table. Empty module levels follow
// the global level.
func (o *Options) loggingConfig(fileModules map[string]string) logging.Config {
	flagModules := map[string]string{
		"led":     o.LoggingLED,
		"pattern": o.LoggingPattern,
		"backend": o.LoggingBackend,
		"api":     o.LoggingAPI,
		"http":    o.LoggingHTTP,
		"mqtt":    o.LoggingMqtt,
		"config":  o.LoggingConfig,
	}
	modules := make(map[string]string, len(fileModules)+len(flagModules))
	for name, level := range fileModules {
		modules[name] = level
	}
	for name, level := range flagModules {
		if level != "" {
			modules[name] = level
		}
	}
	return logging.Config{
		Level:   o.LoggingLevel,
		Format:  o.LoggingFormat,
		Modules: modules,
	}
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		fileLogging := config.LoadLoggingConfig(opts.Config)
		logging.Initialize(opts.loggingConfig(fileLogging.Modules))
		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())
		finished := make(chan struct{})

		// Only the root command starts the daemon; led and pattern stop
		// after this callback.
		hooks.OnStart(func() {
			defer close(finished)
			logger.Info("Starting ledd", "version", version.Version, "commit", version.GitCommit)
			if err := runDaemon(ctx, opts); err != nil {
				logger.Error("ledd failed", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
			<-finished
		})
	})

	root := cli.Root()
	root.Use = version.Name
	root.Short = "LED priority arbitration and pattern daemon"
	root.Version = version.String()
	root.SetVersionTemplate(fmt.Sprintln("{{.Version}}"))

	root.AddCommand(cmd.CreateLEDCmd())
	root.AddCommand(cmd.CreatePatternCmd())

	cli.Run()
}
