// Package env provides the configuration shared by the SENT binaries.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/sent.go/pkg/capture/source"
	"github.com/robotalks/sent.go/pkg/publish/mqtt"
)

// Channel describes one captured SENT line.
type Channel struct {
	Name string `yaml:"name"`
	// Source is a capture source URL, see source.Open.
	Source string `yaml:"source"`
	// ClockHz is the capture timer frequency, 0 if unknown.
	ClockHz uint32 `yaml:"clock_hz,omitempty"`
}

// Config provides common options of the SENT binaries.
type Config struct {
	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL    string
	NodeID           string
	ConfigFile       string
	ReportInterval   time.Duration
	MinFrameInterval time.Duration
	Channels         []Channel
}

// File is the YAML form of the config. Non-zero values override the
// flags.
type File struct {
	MQTTBrokerURL      string    `yaml:"mqtt_url,omitempty"`
	NodeID             string    `yaml:"node_id,omitempty"`
	ReportIntervalMs   int       `yaml:"report_interval_ms,omitempty"`
	MinFrameIntervalMs int       `yaml:"min_frame_interval_ms,omitempty"`
	Channels           []Channel `yaml:"channels,omitempty"`
}

// DefaultReportInterval is the stats report period.
const DefaultReportInterval = time.Second

var defaultConfig = Config{
	MQTTBrokerURL:  "mqtt://localhost:1883/sent/",
	ReportInterval: DefaultReportInterval,
}

func init() {
	if val := os.Getenv("SENT_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("SENT_NODE_ID"); val != "" {
		defaultConfig.NodeID = val
	}
	if val := os.Getenv("SENT_CONFIG"); val != "" {
		defaultConfig.ConfigFile = val
	}
}

type channelsFlag struct {
	channels *[]Channel
}

func (f channelsFlag) String() string {
	if f.channels == nil {
		return ""
	}
	strs := make([]string, 0, len(*f.channels))
	for _, ch := range *f.channels {
		strs = append(strs, FormatChannel(ch))
	}
	return strings.Join(strs, " ")
}

func (f channelsFlag) Set(val string) error {
	ch, err := ParseChannel(val)
	if err != nil {
		return err
	}
	*f.channels = append(*f.channels, ch)
	return nil
}

// ParseChannel parses NAME=SOURCE[@CLOCK_HZ].
func ParseChannel(val string) (Channel, error) {
	var ch Channel
	pos := strings.Index(val, "=")
	if pos <= 0 {
		return ch, fmt.Errorf("invalid channel %q, expect NAME=SOURCE[@CLOCK_HZ]", val)
	}
	ch.Name, ch.Source = val[:pos], val[pos+1:]
	// '@' also appears in URL user info, only a numeric suffix is a clock.
	pos = strings.LastIndex(ch.Source, "@")
	if pos < 0 || strings.ContainsAny(ch.Source[pos+1:], "/:") {
		return ch, nil
	}
	hz, err := strconv.ParseUint(ch.Source[pos+1:], 10, 32)
	if err != nil {
		return ch, fmt.Errorf("invalid clock of channel %q: %v", ch.Name, err)
	}
	ch.Source, ch.ClockHz = ch.Source[:pos], uint32(hz)
	return ch, nil
}

// FormatChannel is the inverse of ParseChannel.
func FormatChannel(ch Channel) string {
	str := ch.Name + "=" + ch.Source
	if ch.ClockHz > 0 {
		str += "@" + strconv.FormatUint(uint64(ch.ClockHz), 10)
	}
	return str
}

// SetupFlags sets command line flags.
func SetupFlags() {
	defaultConfig.SetupFlags(flag.CommandLine)
}

// SetupFlags registers the config fields on fs.
func (c *Config) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL")
	fs.StringVar(&c.NodeID, "node", c.NodeID, "Node ID, defaults to machine ID")
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "YAML config file")
	fs.DurationVar(&c.ReportInterval, "report-interval", c.ReportInterval, "Stats report interval")
	fs.DurationVar(&c.MinFrameInterval, "frame-interval", c.MinFrameInterval, "Minimum interval between frame events of a channel")
	fs.Var(channelsFlag{channels: &c.Channels}, "channel", "Channel NAME=SOURCE[@CLOCK_HZ], repeatable")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Channels = append([]Channel(nil), defaultConfig.Channels...)
	return &conf
}

// Merge applies non-zero values of a config file.
func (c *Config) Merge(f *File) {
	if f.MQTTBrokerURL != "" {
		c.MQTTBrokerURL = f.MQTTBrokerURL
	}
	if f.NodeID != "" {
		c.NodeID = f.NodeID
	}
	if f.ReportIntervalMs > 0 {
		c.ReportInterval = time.Duration(f.ReportIntervalMs) * time.Millisecond
	}
	if f.MinFrameIntervalMs > 0 {
		c.MinFrameInterval = time.Duration(f.MinFrameIntervalMs) * time.Millisecond
	}
	c.Channels = append(c.Channels, f.Channels...)
}

// ParseFile parses the YAML config.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load merges ConfigFile if specified and fills the default node ID.
func (c *Config) Load() error {
	if c.ConfigFile != "" {
		data, err := os.ReadFile(c.ConfigFile)
		if err != nil {
			return err
		}
		f, err := ParseFile(data)
		if err != nil {
			return fmt.Errorf("parse config %s: %v", c.ConfigFile, err)
		}
		c.Merge(f)
	}
	if c.NodeID == "" {
		c.NodeID = MachineID()
	}
	return nil
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("node id must be specified")
	}
	if strings.ContainsAny(c.NodeID, "/+#") {
		return fmt.Errorf("invalid node id %q", c.NodeID)
	}
	if c.ReportInterval <= 0 {
		return fmt.Errorf("invalid report interval %v", c.ReportInterval)
	}
	names := make(map[string]bool)
	for _, ch := range c.Channels {
		if ch.Name == "" || strings.ContainsAny(ch.Name, "/+#") {
			return fmt.Errorf("invalid channel name %q", ch.Name)
		}
		if names[ch.Name] {
			return fmt.Errorf("duplicated channel %q", ch.Name)
		}
		names[ch.Name] = true
		if err := source.Validate(ch.Source); err != nil {
			return fmt.Errorf("channel %s: %v", ch.Name, err)
		}
	}
	return nil
}

// MustLoad loads and validates the config, and fails on error.
func (c *Config) MustLoad() *Config {
	if err := c.Load(); err != nil {
		log.Fatalln(err)
	}
	if err := c.Validate(); err != nil {
		log.Fatalln(err)
	}
	return c
}

// NewQueue creates the MQTT queue, nil if no broker is configured.
func (c *Config) NewQueue() (*mqtt.Queue, error) {
	if c.MQTTBrokerURL == "" {
		return nil, nil
	}
	q, err := mqtt.NewQueueFromURL(c.MQTTBrokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MQTT URL: %v", err)
	}
	return q, nil
}
