package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v2"

	"solarcast/db"
	qhttp "solarcast/http"
	"solarcast/ml"
	"solarcast/monitoring"
)

type Config struct {
	Http struct {
		Port           int      `yaml:"port"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	ML struct {
		ModelType      string `yaml:"model_type"`
		ModelPath      string `yaml:"model_path"`
		ScalerPath     string `yaml:"scaler_path"`
		CacheSize      int    `yaml:"cache_size"`
		WatchArtifacts bool   `yaml:"watch_artifacts"`
	} `yaml:"ml"`
	Training struct {
		DatasetPath string  `yaml:"dataset_path"`
		TreeDepths  []int   `yaml:"tree_depths"`
		TestRatio   float64 `yaml:"test_ratio"`
	} `yaml:"training"`
}

func main() {
	config, err := loadConfig("config.yaml")
	if err != nil {
		// structured logger is not up yet
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(config)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := db.InitDB(config.Database.Path); err != nil {
		zap.S().Fatalw("failed to initialize database", "path", config.Database.Path, "error", err)
	}
	defer db.Close()
	zap.S().Infow("database initialized", "path", config.Database.Path)

	// both artifacts must load or there is nothing to serve
	scaler, model, err := ml.LoadArtifacts(config.ML.ModelType, config.ML.ModelPath, config.ML.ScalerPath)
	if err != nil {
		zap.S().Fatalw("failed to load model artifacts", "error", err)
	}

	service := ml.NewPredictionService(scaler, model)
	if config.ML.CacheSize > 0 {
		if err := service.EnableCache(config.ML.CacheSize); err != nil {
			zap.S().Fatalw("failed to enable prediction cache", "error", err)
		}
	}

	if config.ML.WatchArtifacts {
		watcher, err := ml.NewArtifactWatcher(service, config.ML.ModelType, config.ML.ModelPath, config.ML.ScalerPath)
		if err != nil {
			zap.S().Fatalw("failed to watch artifacts", "error", err)
		}
		defer watcher.Close()
	}

	hub := monitoring.NewLiveHub()
	go hub.Run()
	defer hub.Stop()

	stats := monitoring.NewPredictionStats()

	qhttp.SetPredictionService(service)
	qhttp.SetLiveHub(hub)
	qhttp.SetPredictionStats(stats)
	qhttp.SetTrainingConfig(qhttp.TrainingConfig{
		DatasetPath: config.Training.DatasetPath,
		ModelType:   config.ML.ModelType,
		ModelPath:   config.ML.ModelPath,
		ScalerPath:  config.ML.ScalerPath,
		TreeDepths:  config.Training.TreeDepths,
		TestRatio:   config.Training.TestRatio,
	})

	serverConfig := qhttp.DefaultServerConfig()
	serverConfig.Port = config.Http.Port
	if config.Http.TimeoutSeconds > 0 {
		serverConfig.Timeout = time.Duration(config.Http.TimeoutSeconds) * time.Second
	}
	if len(config.Http.AllowedOrigins) > 0 {
		serverConfig.AllowedOrigins = config.Http.AllowedOrigins
	}

	server := qhttp.NewServer(serverConfig)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			zap.S().Fatalw("HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.S().Info("shutting down")

	if err := server.Stop(); err != nil {
		zap.S().Warnw("server forced to shutdown", "error", err)
	}

	zap.S().Info("exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func newLogger(config *Config) *zap.Logger {
	level, err := zapcore.ParseLevel(config.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	sink := zapcore.AddSync(os.Stdout)
	if config.Log.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   config.Log.File,
			MaxSize:    config.Log.MaxSizeMB,
			MaxBackups: config.Log.MaxBackups,
			MaxAge:     config.Log.MaxAgeDays,
		}
		sink = zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout), zapcore.AddSync(rotator))
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, level)
	return zap.New(core)
}
