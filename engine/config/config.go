// Package config loads the YAML configuration of the animation engine and turns it into the
// construction options of the animation, skeleton and animator packages.
package config

import (
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/animator"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file.
type Config struct {
	Animation AnimationConfig `yaml:"animation"`
	Skeleton  SkeletonConfig  `yaml:"skeleton"`
	Animator  AnimatorConfig  `yaml:"animator"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AnimationConfig holds the defaults every animation is created with.
type AnimationConfig struct {
	InterpolationMode         string `yaml:"interpolation_mode"`
	RotationInterpolationMode string `yaml:"rotation_interpolation_mode"`
	UseShortestRotationPath   *bool  `yaml:"use_shortest_rotation_path"`
}

// SkeletonConfig holds the defaults every skeleton is created with.
type SkeletonConfig struct {
	BlendMode string `yaml:"blend_mode"`
}

// AnimatorConfig sizes the worker pool of the per-frame animator.
type AnimatorConfig struct {
	// ComputeWorkers is the number of evaluation workers; 0 picks NumCPU-1.
	ComputeWorkers int           `yaml:"compute_workers"`
	QueueSize      int           `yaml:"queue_size"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	Profiling      bool          `yaml:"profiling"`
}

// LoggingConfig selects the level of the shared logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - *Config: the default configuration
func Default() *Config {
	shortest := true
	return &Config{
		Animation: AnimationConfig{
			InterpolationMode:         animation.InterpolationLinear.String(),
			RotationInterpolationMode: animation.RotationLinear.String(),
			UseShortestRotationPath:   &shortest,
		},
		Skeleton: SkeletonConfig{
			BlendMode: skeleton.BlendAverage.String(),
		},
		Animator: AnimatorConfig{
			QueueSize:   256,
			IdleTimeout: time.Second,
		},
		Logging: LoggingConfig{
			Level: logrus.InfoLevel.String(),
		},
	}
}

// LoadConfig reads a YAML file on top of the defaults and validates the result.
// Keys missing from the file keep their default values.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - *Config: the loaded configuration
//   - error: error if the file cannot be read or parsed, or fails validation
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - *Config: the parsed configuration
//   - error: error if the document cannot be decoded or fails validation
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if cfg.Animation.UseShortestRotationPath == nil {
		shortest := true
		cfg.Animation.UseShortestRotationPath = &shortest
	}
	if cfg.Animator.QueueSize == 0 {
		cfg.Animator.QueueSize = 256
	}
	if cfg.Animator.IdleTimeout == 0 {
		cfg.Animator.IdleTimeout = time.Second
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every enum name and numeric range.
//
// Returns:
//   - error: the first invalid field found
func (c *Config) Validate() error {
	if _, err := animation.ParseInterpolationMode(c.Animation.InterpolationMode); err != nil {
		return errors.Wrap(err, "animation.interpolation_mode")
	}
	if _, err := animation.ParseRotationInterpolationMode(c.Animation.RotationInterpolationMode); err != nil {
		return errors.Wrap(err, "animation.rotation_interpolation_mode")
	}
	if _, err := skeleton.ParseBlendMode(c.Skeleton.BlendMode); err != nil {
		return errors.Wrap(err, "skeleton.blend_mode")
	}
	if c.Animator.ComputeWorkers < 0 {
		return errors.Errorf("animator.compute_workers must not be negative, got %d", c.Animator.ComputeWorkers)
	}
	if c.Animator.QueueSize < 0 {
		return errors.Errorf("animator.queue_size must not be negative, got %d", c.Animator.QueueSize)
	}
	if c.Animator.IdleTimeout < 0 {
		return errors.Errorf("animator.idle_timeout must not be negative, got %s", c.Animator.IdleTimeout)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return errors.Wrap(err, "logging.level")
	}
	return nil
}

// AnimationOptions returns the animation options the configuration selects.
// The configuration must have been validated.
func (c *Config) AnimationOptions() []animation.AnimationBuilderOption {
	mode, _ := animation.ParseInterpolationMode(c.Animation.InterpolationMode)
	rot, _ := animation.ParseRotationInterpolationMode(c.Animation.RotationInterpolationMode)
	shortest := c.Animation.UseShortestRotationPath == nil || *c.Animation.UseShortestRotationPath
	return []animation.AnimationBuilderOption{
		animation.WithInterpolationMode(mode),
		animation.WithRotationInterpolationMode(rot),
		animation.WithShortestRotationPath(shortest),
	}
}

// SkeletonOptions returns the skeleton options the configuration selects, including the
// animation defaults of every animation the skeleton creates.
func (c *Config) SkeletonOptions() []skeleton.SkeletonBuilderOption {
	mode, _ := skeleton.ParseBlendMode(c.Skeleton.BlendMode)
	return []skeleton.SkeletonBuilderOption{
		skeleton.WithBlendMode(mode),
		skeleton.WithAnimationOptions(c.AnimationOptions()...),
	}
}

// AnimatorOptions returns the animator options the configuration selects. A profiler reporting
// through the shared logger is attached when profiling is on.
func (c *Config) AnimatorOptions() []animator.AnimatorBuilderOption {
	options := []animator.AnimatorBuilderOption{
		animator.WithQueueSize(c.Animator.QueueSize),
		animator.WithIdleTimeout(c.Animator.IdleTimeout),
	}
	if c.Animator.ComputeWorkers > 0 {
		options = append(options, animator.WithComputeWorkers(c.Animator.ComputeWorkers))
	}
	if c.Animator.Profiling {
		options = append(options, animator.WithProfiler(profiler.NewProfiler()))
	}
	return options
}

// ApplyLogging sets the level of the shared logger.
//
// Returns:
//   - error: error if the level name is not recognised
func (c *Config) ApplyLogging() error {
	return common.SetLogLevel(c.Logging.Level)
}
