package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"go-document-verifier/exclusion"
	"go-document-verifier/imaging"
	"go-document-verifier/logging"
	redis "go-document-verifier/redis"
	"go-document-verifier/verify"
)

type Config struct {
	ServerConfig ServerConfig `json:"server_config"`

	LogLevel string `json:"log_level,omitempty"`

	JwtPrivateKeyPath string `json:"jwt_private_key_path"`
	JwtIssuer         string `json:"jwt_issuer"`

	OcrConfig OcrConfig `json:"ocr_config"`

	// FaceCascadePath points at the binary face classifier. Optional;
	// without it portrait extraction is disabled.
	FaceCascadePath string `json:"face_cascade_path,omitempty"`

	StorageType         string                    `json:"storage_type"`
	RedisConfig         redis.RedisConfig         `json:"redis_config,omitempty"`
	RedisSentinelConfig redis.RedisSentinelConfig `json:"redis_sentinel_config,omitempty"`

	// ExcludedCnps seeds the in-memory self-exclusion register when no
	// Redis storage is configured.
	ExcludedCnps []string `json:"excluded_cnps,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "Path for the config.json to use")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "please provide a config path using the --config flag")
		os.Exit(1)
	}

	config, err := readConfigFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read config file: %v\n", err)
		os.Exit(1)
	}

	logging.InitLogger(config.LogLevel)
	slog.Info("using config", "path", *configPath)
	slog.Info("hosting on", "host", config.ServerConfig.Host, "port", config.ServerConfig.Port)

	jwtCreator, err := NewReceiptJwtCreator(config.JwtPrivateKeyPath, config.JwtIssuer)
	if err != nil {
		slog.Error("failed to instantiate jwt creator", "error", err)
		os.Exit(1)
	}

	sessionStorage, lookup, err := createStorage(&config)
	if err != nil {
		slog.Error("failed to instantiate storage", "error", err)
		os.Exit(1)
	}

	pipeline, err := createImagingPipeline(&config)
	if err != nil {
		slog.Error("failed to initialize imaging", "error", err)
		os.Exit(1)
	}

	ocrClient := NewOcrClient(config.OcrConfig)
	if err := ocrClient.HealthCheck(); err != nil {
		slog.Warn("ocr service health check failed", "error", err)
	}

	serverState := ServerState{
		sessionStorage:   sessionStorage,
		jwtCreator:       jwtCreator,
		orchestrator:     verify.NewOrchestrator(ocrClient.ExtractorFactory()),
		exclusionChecker: exclusion.NewChecker(lookup),
		pipeline:         pipeline,
	}

	server, err := NewServer(&serverState, config.ServerConfig)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	err = server.ListenAndServe()
	if err != nil {
		slog.Error("failed to listen and serve", "error", err)
		os.Exit(1)
	}
}

func readConfigFile(path string) (Config, error) {
	configBytes, err := os.ReadFile(path)

	if err != nil {
		return Config{}, err
	}

	var config Config
	err = json.Unmarshal(configBytes, &config)

	if err != nil {
		return Config{}, err
	}

	return config, nil
}

// createStorage builds the scan session storage and the exclusion register
// from the configured storage type.
func createStorage(config *Config) (SessionStorage, exclusion.LookupService, error) {
	if config.StorageType == "redis" {
		slog.Info("Using redis session storage")
		client, err := redis.NewRedisClient(&config.RedisConfig)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisSessionStorage(client, config.RedisConfig.Namespace),
			exclusion.NewRedisLookup(client, config.RedisConfig.Namespace), nil
	}
	if config.StorageType == "redis_sentinel" {
		slog.Info("Using redis sentinel storage")
		client, err := redis.NewRedisSentinelClient(&config.RedisSentinelConfig)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisSessionStorage(client, config.RedisSentinelConfig.Namespace),
			exclusion.NewRedisLookup(client, config.RedisSentinelConfig.Namespace), nil
	}
	if config.StorageType == "memory" {
		slog.Info("Using in memory storage")
		return NewInMemorySessionStorage(), exclusion.NewInMemoryLookup(config.ExcludedCnps...), nil
	}
	return nil, nil, fmt.Errorf("%v is not a valid storage type", config.StorageType)
}

// createImagingPipeline loads the face classifier and builds the still-image
// presentation pipeline.
func createImagingPipeline(config *Config) (*imaging.Pipeline, error) {
	var cascade []byte
	if config.FaceCascadePath != "" {
		var err error
		cascade, err = os.ReadFile(config.FaceCascadePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read face cascade: %w", err)
		}
	}

	runtime := imaging.NewRuntime()
	if err := runtime.Load(cascade); err != nil {
		return nil, err
	}

	backend, err := runtime.Backend()
	if err != nil {
		return nil, err
	}
	return imaging.NewPipeline(backend), nil
}
