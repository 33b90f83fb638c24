package main

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"imgbench/bench"
	"imgbench/fetch"
	"imgbench/model"
)

const (
	keyDataDir     = "data.dir"
	keyDBPath      = "data.db"
	keyBlobURL     = "data.blob_url"
	keyCacheDir    = "cache.dir"
	keyCacheSize   = "cache.size"
	keyLogLevel    = "log.level"
	keyLogJSON     = "log.json"
	keyMode        = "bench.mode"
	keySources     = "bench.sources"
	keyStrategies  = "bench.strategies"
	keyIterations  = "bench.iterations"
	keySettle      = "bench.settle"
	keyWorkers     = "bench.workers"
	keyTimeout     = "bench.timeout"
	keyValidate    = "bench.validate"
	keySeedCount   = "seed.count"
	keySeedSide    = "seed.side"
	keySeedQuality = "seed.quality"
	keyServeAddr   = "serve.addr"
	keyServeTick   = "serve.tick"
)

// Settings is the resolved configuration: defaults, then the config file,
// then IMGBENCH_* environment variables, then flags.
type Settings struct {
	DataDir   string
	DBPath    string
	BlobURL   string
	CacheDir  string
	CacheSize int

	LogLevel string
	LogJSON  bool

	Mode        bench.Mode
	Sources     []model.SourceKind
	Strategies  []fetch.Strategy
	Iterations  int
	SettleDelay time.Duration
	Workers     int
	Timeout     time.Duration
	Validate    bool

	SeedCount   int
	SeedSide    int
	SeedQuality int

	ServeAddr string
	ServeTick time.Duration
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("imgbench")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func readConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	return errors.Wrapf(v.ReadInConfig(), "read config %s", path)
}

func loadSettings(v *viper.Viper) (Settings, error) {
	s := Settings{
		DataDir:     getString(v, keyDataDir, "data/images"),
		DBPath:      getString(v, keyDBPath, "data/images.db"),
		BlobURL:     getString(v, keyBlobURL, ""),
		CacheDir:    getString(v, keyCacheDir, ""),
		CacheSize:   getInt(v, keyCacheSize, 64),
		LogLevel:    getString(v, keyLogLevel, "info"),
		LogJSON:     getBool(v, keyLogJSON, false),
		Iterations:  getInt(v, keyIterations, 3),
		SettleDelay: getDuration(v, keySettle, bench.DefaultSettleDelay),
		Workers:     getInt(v, keyWorkers, 0),
		Timeout:     getDuration(v, keyTimeout, 10*time.Second),
		Validate:    getBool(v, keyValidate, true),
		SeedCount:   getInt(v, keySeedCount, 5),
		SeedSide:    getInt(v, keySeedSide, 500),
		SeedQuality: getInt(v, keySeedQuality, 90),
		ServeAddr:   getString(v, keyServeAddr, ":8080"),
		ServeTick:   getDuration(v, keyServeTick, 30*time.Second),
	}

	var err error

	if s.Mode, err = bench.ParseMode(getString(v, keyMode, string(bench.Sequential))); err != nil {
		return s, err
	}

	for _, name := range getStrings(v, keySources, "FILE,BLOB") {
		kind, err := model.ParseSourceKind(name)

		if err != nil {
			return s, err
		}

		s.Sources = append(s.Sources, kind)
	}

	for _, name := range getStrings(v, keyStrategies, "stream,buffer,zerocopy") {
		st, err := fetch.ParseStrategy(name)

		if err != nil {
			return s, err
		}

		s.Strategies = append(s.Strategies, st)
	}

	if s.Iterations < 1 {
		return s, errors.Wrapf(model.ErrInvalidRequest, "%s must be positive, got %d", keyIterations, s.Iterations)
	}

	if s.CacheSize < 1 {
		return s, errors.Wrapf(model.ErrInvalidRequest, "%s must be positive, got %d", keyCacheSize, s.CacheSize)
	}

	if s.SeedCount < 1 {
		return s, errors.Wrapf(model.ErrInvalidRequest, "%s must be positive, got %d", keySeedCount, s.SeedCount)
	}

	if s.SeedSide < 1 {
		return s, errors.Wrapf(model.ErrInvalidRequest, "%s must be positive, got %d", keySeedSide, s.SeedSide)
	}

	if s.SeedQuality < 1 || s.SeedQuality > 100 {
		return s, errors.Wrapf(model.ErrInvalidRequest, "%s must be within 1..100, got %d", keySeedQuality, s.SeedQuality)
	}

	return s, nil
}

func getString(v *viper.Viper, key, defaultValue string) string {
	if !v.IsSet(key) {
		return defaultValue
	}

	return v.GetString(key)
}

func getBool(v *viper.Viper, key string, defaultValue bool) bool {
	if !v.IsSet(key) {
		return defaultValue
	}

	return v.GetBool(key)
}

func getInt(v *viper.Viper, key string, defaultValue int) int {
	if !v.IsSet(key) {
		return defaultValue
	}

	return v.GetInt(key)
}

func getDuration(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	if !v.IsSet(key) {
		return defaultValue
	}

	return v.GetDuration(key)
}

// getStrings accepts a yaml list or a comma separated string.
func getStrings(v *viper.Viper, key, defaultValue string) []string {
	raw := []string{defaultValue}

	if v.IsSet(key) {
		raw = v.GetStringSlice(key)
	}

	var result []string

	for _, val := range raw {
		for _, part := range strings.Split(val, ",") {
			if trim := strings.TrimSpace(part); trim != "" {
				result = append(result, trim)
			}
		}
	}

	return result
}
