package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`

	Redis struct {
		Address  string `mapstructure:"address"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Storage struct {
		UploadDir string `mapstructure:"upload_dir"`
		OutputDir string `mapstructure:"output_dir"`
	} `mapstructure:"storage"`

	Pipeline struct {
		// Threshold is the isosurface scalar threshold. Binary segmentation
		// masks need ~1; raw CT Hounsfield data needs ~250 for bone.
		Threshold float64 `mapstructure:"threshold"`
		// Suffix is the required upload filename suffix.
		Suffix string `mapstructure:"suffix"`
	} `mapstructure:"pipeline"`

	Worker struct {
		Concurrency int            `mapstructure:"concurrency"`
		Queues      map[string]int `mapstructure:"queues"`
	} `mapstructure:"worker"`

	Blob struct {
		ConnectionString string `mapstructure:"connection_string"`
		Container        string `mapstructure:"container"`
		Folder           string `mapstructure:"folder"`
	} `mapstructure:"blob"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("server.addr", "0.0.0.0")
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("storage.upload_dir", "/tmp/uploads")
	viper.SetDefault("storage.output_dir", "/tmp/outputs")
	viper.SetDefault("pipeline.threshold", 1.0)
	viper.SetDefault("pipeline.suffix", ".nii.gz")
	viper.SetDefault("worker.concurrency", 2)
	viper.SetDefault("worker.queues", map[string]int{"convert": 6, "uploads": 1})
	viper.SetDefault("blob.container", "spartis-uploads")
	viper.SetDefault("blob.folder", "app_uploaded_data")

	viper.AutomaticEnv()
	// Deployment environments provide these without a config file.
	viper.BindEnv("redis.address", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("blob.connection_string", "AZURE_STORAGE_CONNECTION_STRING")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env vars cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
