package bridge

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v3"
)

// Attribute kinds of a Poll.
const (
	KindNumber = "number"
	KindText   = "text"
)

// Poll reads an attribute periodically and publishes its value.
type Poll struct {
	Ref      string        `yaml:"ref"`
	Kind     string        `yaml:"kind"`
	Interval time.Duration `yaml:"interval"`
}

// Config defines the bridge.
type Config struct {
	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string `yaml:"mqtt"`
	// NodeID names this display in topics, defaults to the machine id.
	NodeID string `yaml:"node"`
	// LoopInterval is the period of the polling loop.
	LoopInterval time.Duration `yaml:"loop_interval"`
	// MaxEvents bounds event frames dispatched per iteration.
	MaxEvents int `yaml:"max_events"`
	// FlushOnStart discards what the display sent before the bridge
	// started, on the first iteration.
	FlushOnStart bool `yaml:"flush_on_start"`
	// Polls lists attributes published periodically.
	Polls []Poll `yaml:"polls"`

	// File is the YAML file loaded by Load.
	File string `yaml:"-"`
}

// Defaults
const (
	DefaultLoopInterval = 10 * time.Millisecond
	DefaultMaxEvents    = 8
	DefaultPollInterval = time.Second
)

var defaultConfig = Config{
	MQTTBrokerURL: "mqtt://localhost:1883/nextion/",
	LoopInterval:  DefaultLoopInterval,
	MaxEvents:     DefaultMaxEvents,
	FlushOnStart:  true,
}

func init() {
	loadEnv()
}

// loadEnv overrides defaults from the environment. SetupFlags calls it
// again so variables loaded from a .env file in main take effect.
func loadEnv() {
	if val := os.Getenv("NEXTION_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("NEXTION_NODE"); val != "" {
		defaultConfig.NodeID = val
	} else if id, err := machineid.ID(); err == nil {
		defaultConfig.NodeID = id
	}
	if val := os.Getenv("NEXTION_BRIDGE_CONFIG"); val != "" {
		defaultConfig.File = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	loadEnv()
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL.")
	flag.StringVar(&defaultConfig.NodeID, "node", defaultConfig.NodeID, "Node ID used in topics.")
	flag.DurationVar(&defaultConfig.LoopInterval, "interval", defaultConfig.LoopInterval, "Loop interval.")
	flag.StringVar(&defaultConfig.File, "config", defaultConfig.File, "YAML config file.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load reads c.File, if set, over the current values.
func (c *Config) Load() error {
	if c.File == "" {
		return nil
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	return c.Parse(data)
}

// Parse reads YAML over the current values and validates the result.
func (c *Config) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return c.Validate()
}

// Validate checks the config and fills defaults of polls.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("node id must be specified")
	}
	for i := range c.Polls {
		p := &c.Polls[i]
		if p.Ref == "" {
			return fmt.Errorf("poll %d: ref required", i)
		}
		switch p.Kind {
		case "":
			p.Kind = KindNumber
		case KindNumber, KindText:
		default:
			return fmt.Errorf("poll %q: unknown kind %q", p.Ref, p.Kind)
		}
		if p.Interval <= 0 {
			p.Interval = DefaultPollInterval
		}
	}
	return nil
}
