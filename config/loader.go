package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/reqkit/errors"
	"github.com/kbukum/reqkit/logger"
)

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "REQKIT"

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserConfigDir() (string, error)
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (rfs *RealFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// Resolver handles finding and resolving config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles finds config and env files for an application.
// Explicit paths win; otherwise the standard locations are searched.
func (cr *Resolver) ResolveFiles(name string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}

	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.findConfigFile(name)
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.findEnvFile(name)
	}

	return resolved
}

// findConfigFile searches the working directory, ./config and the user
// config directory.
func (cr *Resolver) findConfigFile(name string) string {
	var searchPaths []string
	for _, ext := range []string{"yml", "yaml"} {
		searchPaths = append(searchPaths,
			fmt.Sprintf("./%s.%s", name, ext),
			fmt.Sprintf("./.%s.%s", name, ext),
			fmt.Sprintf("./config/%s.%s", name, ext),
		)
	}
	if dir, err := cr.FileSystem.UserConfigDir(); err == nil && dir != "" {
		searchPaths = append(searchPaths,
			filepath.Join(dir, name, "config.yml"),
			filepath.Join(dir, name, "config.yaml"),
		)
	}

	for _, path := range searchPaths {
		if cr.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

// findEnvFile searches for .env.<name> and .env files.
func (cr *Resolver) findEnvFile(name string) string {
	for _, envFile := range []string{".env." + name, ".env"} {
		for _, dir := range []string{".", "./config"} {
			path := dir + "/" + envFile
			if cr.FileSystem.Exists(path) {
				return path
			}
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
	Logger     *logger.Logger
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path. A missing explicit file
// is an error.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithLogger sets the logger used for loader warnings. Without it the
// logger registered as "config" is used.
func WithLogger(l *logger.Logger) LoaderOption {
	return func(lc *LoaderConfig) { lc.Logger = l }
}

// Load reads Settings for the named application on top of Defaults(name),
// then applies defaults and validates the result.
func Load(name string, opts ...LoaderOption) (*Settings, error) {
	s := Defaults(name)
	if err := LoadConfig(name, &s, opts...); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadConfig loads configuration into cfg, a pointer to a struct. The values
// already in cfg act as defaults. After unmarshalling, cfg's ApplyDefaults
// and Validate methods run when it has them.
func LoadConfig(name string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	if lc.ConfigFile != "" && !lc.FileSystem.Exists(lc.ConfigFile) {
		return errors.InvalidConfig("config file not found").WithDetail("path", lc.ConfigFile)
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(name, lc)

	return loadFromResolvedFiles(name, cfg, files, lc)
}

// loadFromResolvedFiles loads configuration from specific files.
func loadFromResolvedFiles(name string, cfg any, files ResolvedFiles, lc LoaderConfig) error {
	log := logger.Get("config")
	if lc.Logger != nil {
		log = lc.Logger.WithComponent("config")
	}

	rv := reflect.ValueOf(cfg)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return errors.InvalidConfig(fmt.Sprintf("config target must be a pointer to a struct, got %T", cfg))
	}

	v := viper.New()

	// 1. Defaults from the values already in cfg.
	setDefaults(v, "", rv.Elem())

	// 2. Config file.
	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.InvalidConfig("read config file").
				WithDetail("path", files.ConfigFile).
				WithCause(err)
		}
		registerMapEntries(v, "", rv.Elem().Type())
		log.Debug("loaded config file", logger.Fields("path", files.ConfigFile))
	}

	// 3. .env file, read lazily through the environment.
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			log.Warn("failed to load .env file", logger.MergeWithError(logger.Fields("path", files.EnvFile), err))
		}
	}

	// 4. REQKIT_* environment variables override known keys.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return errors.InvalidConfig("failed to unmarshal config for " + name).WithCause(err)
	}

	if d, ok := cfg.(interface{ ApplyDefaults() }); ok {
		d.ApplyDefaults()
	}
	if val, ok := cfg.(interface{ Validate() error }); ok {
		if err := val.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// setDefaults registers every leaf of val as a viper default so that
// environment variables can override keys missing from the file.
func setDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := joinKey(prefix, keyName(f))
		if key == "" {
			continue
		}
		fv := val.Field(i)

		switch {
		case f.Type.Kind() == reflect.Struct:
			setDefaults(v, key, fv)
		case isStructMap(f.Type):
			iter := fv.MapRange()
			for iter.Next() {
				setDefaults(v, joinKey(key, strings.ToLower(iter.Key().String())), iter.Value())
			}
		case f.Type.Kind() == reflect.Map:
			if fv.Len() > 0 {
				v.SetDefault(key, fv.Interface())
			}
		default:
			v.SetDefault(key, fv.Interface())
		}
	}
}

// registerMapEntries registers the leaves of map entries named only in the
// config file, so REQKIT_PROFILES_<NAME>_* works for every profile.
func registerMapEntries(v *viper.Viper, prefix string, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := joinKey(prefix, keyName(f))
		switch {
		case f.Type.Kind() == reflect.Struct:
			registerMapEntries(v, key, f.Type)
		case isStructMap(f.Type):
			for entry := range v.GetStringMap(key) {
				entryKey := joinKey(key, entry)
				zero := reflect.New(f.Type.Elem()).Elem()
				for _, leaf := range leafKeys(entryKey, zero.Type()) {
					if !v.IsSet(leaf) {
						v.SetDefault(leaf, nil)
					}
				}
			}
		}
	}
}

// leafKeys lists the scalar keys of t under prefix.
func leafKeys(prefix string, t reflect.Type) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := joinKey(prefix, keyName(f))
		switch f.Type.Kind() {
		case reflect.Struct:
			keys = append(keys, leafKeys(key, f.Type)...)
		case reflect.Map:
		default:
			keys = append(keys, key)
		}
	}
	return keys
}

func isStructMap(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Key().Kind() == reflect.String && t.Elem().Kind() == reflect.Struct
}

// keyName is the mapstructure key of a field, lower-cased like viper keys.
func keyName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = f.Name
	}
	return strings.ToLower(name)
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
