// Package transport opens the link to a display from a URL.
package transport

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/robotalks/nextion.go/pkg/transport/serial"
	"github.com/robotalks/nextion.go/pkg/transport/websocket"
)

// Config selects the link to a display.
type Config struct {
	// URL is a device path, serial:///dev/ttyUSB0?baud=115200 or
	// ws://host:port/path.
	URL string
	// BaudRate is used when URL doesn't specify one.
	BaudRate int
}

var defaultConfig = Config{
	URL:      "/dev/ttyUSB0",
	BaudRate: serial.DefaultBaudRate,
}

func init() {
	loadEnv()
}

// loadEnv overrides defaults from the environment. SetupFlags calls it
// again so variables loaded from a .env file in main take effect.
func loadEnv() {
	if val := os.Getenv("NEXTION_PORT"); val != "" {
		defaultConfig.URL = val
	}
	if val := os.Getenv("NEXTION_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			defaultConfig.BaudRate = baud
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	loadEnv()
	flag.StringVar(&defaultConfig.URL, "port", defaultConfig.URL, "Display port: device path, serial:// or ws:// URL.")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Baud rate of serial port.")
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

// Open opens the link.
func (c *Config) Open() (io.ReadWriteCloser, error) {
	if strings.HasPrefix(c.URL, "/") || !strings.Contains(c.URL, "://") {
		return (&serial.Config{Device: c.URL, BaudRate: c.BaudRate}).Open()
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid port URL: %w", err)
	}
	switch u.Scheme {
	case "serial":
		conf := &serial.Config{Device: u.Path, BaudRate: c.BaudRate}
		if val := u.Query().Get("baud"); val != "" {
			if conf.BaudRate, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("invalid baud rate %q", val)
			}
		}
		return conf.Open()
	case "ws", "wss":
		origin := "http://localhost/"
		if u.Scheme == "wss" {
			origin = "https://localhost/"
		}
		return websocket.Dial(c.URL, origin)
	default:
		return nil, fmt.Errorf("unknown port URL scheme: %q", u.Scheme)
	}
}

// Open opens portURL with the default baud rate.
func Open(portURL string) (io.ReadWriteCloser, error) {
	conf := NewConfig()
	conf.URL = portURL
	return conf.Open()
}
