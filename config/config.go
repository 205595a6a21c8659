// Package config provides configuration loading and access for the core
// simulation subsystem (entity store sizing, collision, pathfinding,
// world-resource indexing, crowd separation, and the worker pool).
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable the core subsystems read at startup.
type Config struct {
	Entities     EntitiesConfig     `yaml:"entities"`
	Collision    CollisionConfig    `yaml:"collision"`
	Pathfinding  PathfindingConfig  `yaml:"pathfinding"`
	WorldResource WorldResourceConfig `yaml:"world_resource"`
	Crowd        CrowdConfig        `yaml:"crowd"`
	Pool         PoolConfig         `yaml:"pool"`

	// Derived values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// EntitiesConfig sizes the EntityDataStore.
type EntitiesConfig struct {
	MaxCapacity int `yaml:"max_capacity"`
}

// CollisionConfig tunes the CollisionEngine.
type CollisionConfig struct {
	StaticCellSize      float64 `yaml:"static_cell_size"`
	DynamicCellSize     float64 `yaml:"dynamic_cell_size"`
	MovementThreshold   float64 `yaml:"movement_threshold"`
	ObstacleSafetyMargin float64 `yaml:"obstacle_safety_margin"`
	TriggerCooldown     float64 `yaml:"trigger_cooldown"`
}

// PathfindingConfig tunes the grid, cache, and scheduler.
type PathfindingConfig struct {
	CellSize          float64 `yaml:"cell_size"`
	IterationCap      int     `yaml:"iteration_cap"`
	CacheCapacity     int     `yaml:"cache_capacity"`
	CacheMaxAge       float64 `yaml:"cache_max_age_seconds"`
	CacheMinUseCount  int     `yaml:"cache_min_use_count"`
	NegativeCacheTTL  float64 `yaml:"negative_cache_ttl_seconds"`
	QueueCap          int     `yaml:"queue_cap"`
	BatchSize         int     `yaml:"batch_size"`
	AsyncThreshold    int     `yaml:"async_threshold"`
	PressureThreshold float64 `yaml:"pressure_threshold"`
}

// WorldResourceConfig tunes the WRR's spatial indices.
type WorldResourceConfig struct {
	CellSize float64 `yaml:"cell_size"`
}

// CrowdConfig tunes CrowdSeparation.
type CrowdConfig struct {
	Radius          float64 `yaml:"radius"`
	Strength        float64 `yaml:"strength"`
	NeighborLimit   int     `yaml:"neighbor_limit"`
	QuantizeBucket  float64 `yaml:"quantize_bucket"`
	QueryCacheSize  int     `yaml:"query_cache_size"`
}

// PoolConfig sizes the worker pool.
type PoolConfig struct {
	Workers       int `yaml:"workers"` // 0 = runtime.GOMAXPROCS(0)
	QueueCapacity int `yaml:"queue_capacity"`
}

// DerivedConfig holds values computed after loading, so hot paths never
// recompute them.
type DerivedConfig struct {
	PathfindingIterationCap int
}

var global *Config

// Init loads configuration from path, falling back to embedded defaults
// for any field the file omits. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) computeDerived() {
	c.Derived.PathfindingIterationCap = c.Pathfinding.IterationCap
}
