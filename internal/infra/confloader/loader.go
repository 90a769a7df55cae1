package confloader

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "MONITORED_"

// Loader loads configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	overrides map[string]any
	envKeys   map[string]string
	loaded    bool
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithOverrides sets values applied after every other source. Keys use
// dotted paths ("log.level").
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load reads every source and unmarshals into target, which must be a
// pointer to a struct with koanf tags. Fields no source mentions keep their
// current value, so target usually starts out holding the defaults.
//
// Each call starts from an empty key space; calling Load again re-reads the
// file and the environment.
func (l *Loader) Load(target any) error {
	l.k = koanf.New(".")
	l.envKeys = envKeyIndex(target)

	if l.filePath != "" {
		if err := l.LoadFile(l.filePath); err != nil {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.LoadEnv(); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if len(l.overrides) > 0 {
		if err := l.LoadMap(l.overrides); err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
	}

	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	l.loaded = true
	return nil
}

// LoadFile loads configuration from a YAML file.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}

	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}

	return nil
}

// LoadEnv loads configuration from environment variables.
//
// MONITORED_LOG_QUEUE_SIZE maps to log.queue_size when the target has that
// key; names matching no known key fall back to one level per underscore.
func (l *Loader) LoadEnv() error {
	provider := env.Provider(l.envPrefix, ".", l.envKey)
	if err := l.k.Load(provider, nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	return nil
}

func (l *Loader) envKey(name string) string {
	s := strings.ToLower(strings.TrimPrefix(name, l.envPrefix))
	if key, ok := l.envKeys[s]; ok {
		return key
	}
	return strings.ReplaceAll(s, "_", ".")
}

// LoadMap loads configuration from a map (useful for flags or testing).
func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// Unmarshal unmarshals the loaded configuration into the target struct.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}

// Get returns a value from the configuration by key.
func (l *Loader) Get(key string) any {
	return l.k.Get(key)
}

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// GetInt returns an int value from the configuration.
func (l *Loader) GetInt(key string) int {
	return l.k.Int(key)
}

// GetBool returns a bool value from the configuration.
func (l *Loader) GetBool(key string) bool {
	return l.k.Bool(key)
}

// IsLoaded returns true if configuration has been loaded.
func (l *Loader) IsLoaded() bool {
	return l.loaded
}

// FilePath returns the configured file path, if any.
func (l *Loader) FilePath() string {
	return l.filePath
}

// All returns all configuration as a map.
func (l *Loader) All() map[string]any {
	return l.k.All()
}

// Keys returns all configuration keys.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}

// envKeyIndex maps the underscore form of every koanf key in target
// ("log_queue_size") to the key itself ("log.queue_size").
func envKeyIndex(target any) map[string]string {
	index := make(map[string]string)

	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return index
	}

	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			tag := strings.Split(f.Tag.Get("koanf"), ",")[0]
			if tag == "" || tag == "-" {
				continue
			}

			key := prefix + tag
			ft := f.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && ft.PkgPath() != "time" {
				walk(ft, key+".")
				continue
			}
			index[strings.ReplaceAll(key, ".", "_")] = key
		}
	}
	walk(t, "")

	return index
}
