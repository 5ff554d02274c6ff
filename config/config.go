package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/notnil/canplot"
	"github.com/notnil/canplot/canbus"
)

// Config represents the complete viewer configuration.
type Config struct {
	MaxPoints      int      `yaml:"max_points"`        // points retained per channel
	PositionMin    float64  `yaml:"position_min"`      // radians at code 0
	PositionMax    float64  `yaml:"position_max"`      // radians at the top code
	PositionBits   uint     `yaml:"position_bits"`     // width of the position code
	MotorReplyTag  uint8    `yaml:"motor_reply_tag"`   // payload byte 0 of motor replies
	MaxRowsPerPass int      `yaml:"max_rows_per_pass"` // 0 = unlimited
	DebounceMS     int      `yaml:"debounce_ms"`       // coalescing window for file events
	RefreshMS      int      `yaml:"refresh_ms"`        // display refresh period

	// Channel selection. Identifiers are hex CAN identifiers with any
	// SocketCAN flag bits cleared. A frame is kept when it matches any of
	// Channels, ChannelRanges or ChannelMask (or when none is set), matches
	// none of ExcludeChannels, and has the FrameFormat.
	Channels        []string      `yaml:"channels"`         // ids to keep
	ChannelRanges   []string      `yaml:"channel_ranges"`   // "lo-hi" inclusive ranges to keep
	ChannelMask     *MaskSelector `yaml:"channel_mask"`     // keep ids equal to ID under Mask
	ExcludeChannels []string      `yaml:"exclude_channels"` // ids to drop
	FrameFormat     string        `yaml:"frame_format"`     // "", "standard" or "extended"

	channelIDs []uint32
	excludeIDs []uint32
	ranges     [][2]uint32
	mask       *[2]uint32
}

// MaskSelector keeps identifiers whose bits under Mask equal those of ID.
type MaskSelector struct {
	ID   string `yaml:"id"`
	Mask string `yaml:"mask"`
}

// MaxPointsLimit is the largest window a snapshot blob can hold per channel.
const MaxPointsLimit = math.MaxUint16

// Defaults applied by Validate to zero durations.
const (
	DefaultDebounceMS = 20
	DefaultRefreshMS  = 50
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		MaxPoints:     canplot.DefaultMaxPoints,
		PositionMin:   canplot.DefaultPositionMin,
		PositionMax:   canplot.DefaultPositionMax,
		PositionBits:  canplot.DefaultPositionBits,
		MotorReplyTag: canplot.DefaultMotorReplyTag,
		DebounceMS:    DefaultDebounceMS,
		RefreshMS:     DefaultRefreshMS,
	}
}

// Load reads and parses a YAML configuration file. Fields missing from the
// file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if cfg.MaxPoints <= 0 {
		return fmt.Errorf("max_points must be > 0")
	}
	if cfg.MaxPoints > MaxPointsLimit {
		return fmt.Errorf("max_points must be <= %d, got %d", MaxPointsLimit, cfg.MaxPoints)
	}
	q := cfg.quantizer()
	if err := q.Validate(); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	if cfg.PositionBits > 16 {
		return fmt.Errorf("position_bits must be <= 16, got %d", cfg.PositionBits)
	}
	if cfg.MaxRowsPerPass < 0 {
		return fmt.Errorf("max_rows_per_pass must be >= 0")
	}
	if cfg.DebounceMS < 0 || cfg.RefreshMS < 0 {
		return fmt.Errorf("debounce_ms and refresh_ms must be >= 0")
	}
	if cfg.DebounceMS == 0 {
		cfg.DebounceMS = DefaultDebounceMS
	}
	if cfg.RefreshMS == 0 {
		cfg.RefreshMS = DefaultRefreshMS
	}

	var err error
	if cfg.channelIDs, err = parseChannels(cfg.Channels); err != nil {
		return fmt.Errorf("channels: %w", err)
	}
	if cfg.excludeIDs, err = parseChannels(cfg.ExcludeChannels); err != nil {
		return fmt.Errorf("exclude_channels: %w", err)
	}

	cfg.ranges = cfg.ranges[:0]
	for _, r := range cfg.ChannelRanges {
		lo, hi, ok := strings.Cut(r, "-")
		if !ok {
			return fmt.Errorf("channel_ranges: %q: want lo-hi", r)
		}
		loID, err := parseChannel(lo)
		if err != nil {
			return fmt.Errorf("channel_ranges: %q: %w", r, err)
		}
		hiID, err := parseChannel(hi)
		if err != nil {
			return fmt.Errorf("channel_ranges: %q: %w", r, err)
		}
		cfg.ranges = append(cfg.ranges, [2]uint32{loID, hiID})
	}

	cfg.mask = nil
	if m := cfg.ChannelMask; m != nil {
		id, err := parseChannel(m.ID)
		if err != nil {
			return fmt.Errorf("channel_mask.id: %w", err)
		}
		mask, err := parseChannel(m.Mask)
		if err != nil {
			return fmt.Errorf("channel_mask.mask: %w", err)
		}
		cfg.mask = &[2]uint32{id, mask}
	}

	switch cfg.FrameFormat {
	case "", "standard", "extended":
	default:
		return fmt.Errorf("frame_format must be standard or extended, got %q", cfg.FrameFormat)
	}
	return nil
}

func parseChannels(in []string) ([]uint32, error) {
	ids := make([]uint32, 0, len(in))
	for _, s := range in {
		id, err := parseChannel(s)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseChannel(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	id, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	if id > canbus.MaxExtID {
		return 0, canbus.ErrInvalidID
	}
	return uint32(id), nil
}

func (c *Config) quantizer() canplot.Quantizer {
	return canplot.Quantizer{Min: c.PositionMin, Max: c.PositionMax, Bits: c.PositionBits}
}

// ChannelIDs returns the parsed channels list. Validate must have
// succeeded first.
func (c *Config) ChannelIDs() []uint32 { return c.channelIDs }

// DecoderConfig converts the configuration for canplot.NewDecoder.
func (c *Config) DecoderConfig() canplot.DecoderConfig {
	dc := canplot.DecoderConfig{
		Position:      c.quantizer(),
		MotorReplyTag: c.MotorReplyTag,
	}
	dc.Filter = c.channelFilter()
	return dc
}

func (c *Config) channelFilter() canbus.FrameFilter {
	var keep canbus.FrameFilter
	if len(c.channelIDs) > 0 {
		keep = canbus.ByIDs(c.channelIDs...)
	}
	for _, r := range c.ranges {
		keep = canbus.Or(keep, canbus.ByRange(r[0], r[1]))
	}
	if c.mask != nil {
		keep = canbus.Or(keep, canbus.ByMask(c.mask[0], c.mask[1]))
	}
	if len(c.excludeIDs) > 0 {
		keep = canbus.And(keep, canbus.Not(canbus.ByIDs(c.excludeIDs...)))
	}
	switch c.FrameFormat {
	case "standard":
		keep = canbus.And(keep, canbus.StandardOnly())
	case "extended":
		keep = canbus.And(keep, canbus.ExtendedOnly())
	}
	return keep
}

// IngestorConfig converts the configuration for canplot.NewIngestor.
func (c *Config) IngestorConfig() canplot.IngestorConfig {
	return canplot.IngestorConfig{MaxRowsPerPass: c.MaxRowsPerPass}
}

// Debounce returns the file event coalescing window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Refresh returns the display refresh period.
func (c *Config) Refresh() time.Duration {
	return time.Duration(c.RefreshMS) * time.Millisecond
}
