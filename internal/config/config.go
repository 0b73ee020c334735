package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port          int
	DatasetDir    string // root folder containing one subfolder per camera
	VideoFilename string // required video file inside each camera folder
	OffsetsFile   string // frame-offset table, relative to DatasetDir
	FPS           int    // target playback frame rate
	StaticDir     string
	LogDirectory  string
}

func Load() *Config {
	return &Config{
		Port:          getEnvAsInt("PORT", 8080),
		DatasetDir:    getEnv("DATASET_DIR", filepath.Join(".", "dataset")),
		VideoFilename: getEnv("VIDEO_FILENAME", "vdo.avi"),
		OffsetsFile:   getEnv("OFFSETS_FILE", "offsets.txt"),
		FPS:           getEnvAsInt("FPS", 10),
		StaticDir:     getEnv("STATIC_DIR", filepath.Join(".", "static")),
		LogDirectory:  getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
