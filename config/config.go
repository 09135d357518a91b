package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort int            `yaml:"server_port"`
	Database   DatabaseConfig `yaml:"database"`
	Storage    StorageConfig  `yaml:"storage"`
	MQ         MQConfig       `yaml:"mq"`
	Worker     WorkerConfig   `yaml:"worker"`
	Log        LogConfig      `yaml:"log"`
	Panel      PanelConfig    `yaml:"panel"`
	Seed       SeedConfig     `yaml:"seed"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	DBName       string `yaml:"name"`
	UseSSL       bool   `yaml:"use_ssl"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// StorageConfig selects the object store that holds listing images.
type StorageConfig struct {
	Backend       string           `yaml:"backend"`
	PublicBaseURL string           `yaml:"public_base_url"`
	SignTTL       time.Duration    `yaml:"sign_ttl"`
	Minio         MinioConfig      `yaml:"minio"`
	GCS           GCSConfig        `yaml:"gcs"`
	Cloudinary    CloudinaryConfig `yaml:"cloudinary"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Folder    string `yaml:"folder"`
}

// MQConfig selects the broker used for listing change events.
// An empty backend disables publishing.
type MQConfig struct {
	Backend  string         `yaml:"backend"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	PubSub   PubSubConfig   `yaml:"pubsub"`
}

type RabbitMQConfig struct {
	URL             string `yaml:"url"`
	QueueDurable    bool   `yaml:"queue_durable"`
	QueueAutoDelete bool   `yaml:"queue_auto_delete"`
	PrefetchCount   int    `yaml:"prefetch_count"`
}

type PubSubConfig struct {
	ProjectID          string `yaml:"project_id"`
	CredentialsFile    string `yaml:"credentials_file"`
	SubscriptionSuffix string `yaml:"subscription_suffix"`
}

type WorkerConfig struct {
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	OrphanTTL       time.Duration `yaml:"orphan_ttl"`
	ReleaseAttempts int           `yaml:"release_attempts"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PanelConfig configures the terminal admin panel client.
type PanelConfig struct {
	APIURL       string `yaml:"api_url"`
	PublicURL    string `yaml:"public_url"`
	UploadMode   string `yaml:"upload_mode"`
	CloudName    string `yaml:"cloud_name"`
	UploadPreset string `yaml:"upload_preset"`
}

// SeedConfig fills the in-memory store when DB_DRIVER=memory. SQL drivers
// ignore it; use `patitas admin create` and the shelters table instead.
type SeedConfig struct {
	AdminUsername string        `yaml:"admin_username"`
	AdminPassword string        `yaml:"admin_password"`
	Shelters      []ShelterSeed `yaml:"shelters"`
}

type ShelterSeed struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Defaults returns the configuration used when neither a config file nor
// environment variables override a value.
func Defaults() Config {
	return Config{
		ServerPort: 5000,
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			User:         "patitas",
			Password:     "password",
			DBName:       "adopcion_patitas",
			MaxOpenConns: 10,
		},
		Storage: StorageConfig{
			Backend: "minio",
			SignTTL: 15 * time.Minute,
			Minio: MinioConfig{
				Endpoint: "localhost:9000",
				Bucket:   "patitas",
			},
			Cloudinary: CloudinaryConfig{
				Folder: "mascotas",
			},
		},
		MQ: MQConfig{
			RabbitMQ: RabbitMQConfig{
				QueueDurable:  true,
				PrefetchCount: 10,
			},
			PubSub: PubSubConfig{
				SubscriptionSuffix: "-sub",
			},
		},
		Worker: WorkerConfig{
			SweepInterval:   time.Hour,
			OrphanTTL:       24 * time.Hour,
			ReleaseAttempts: 3,
			RetryDelay:      2 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Panel: PanelConfig{
			APIURL:       "http://localhost:5000",
			PublicURL:    "http://localhost:3000/",
			UploadMode:   "server",
			UploadPreset: "Mascotas",
		},
	}
}

// LoadConfig layers defaults, the optional YAML file named by CONFIG_FILE and
// the process environment, in that order.
func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	base := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if fileCfg, err := LoadFile(path, base); err == nil {
			base = fileCfg
		} else {
			fmt.Fprintf(os.Stderr, "ignoring config file %s: %v\n", path, err)
		}
	}

	return applyEnv(base)
}

// LoadFile decodes a YAML file on top of base.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(c Config) Config {
	dbConfig := DatabaseConfig{
		Driver:       getEnv("DB_DRIVER", c.Database.Driver),
		Host:         getEnv("DB_HOST", c.Database.Host),
		Port:         getEnvInt("DB_PORT", c.Database.Port),
		User:         getEnv("DB_USER", c.Database.User),
		Password:     getEnv("DB_PASSWORD", c.Database.Password),
		DBName:       getEnv("DB_NAME", c.Database.DBName),
		UseSSL:       getEnvBool("DB_USE_SSL", c.Database.UseSSL),
		MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns),
	}

	storageConfig := StorageConfig{
		Backend:       getEnv("STORAGE_BACKEND", c.Storage.Backend),
		PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", c.Storage.PublicBaseURL),
		SignTTL:       getEnvDuration("STORAGE_SIGN_TTL", c.Storage.SignTTL),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", c.Storage.Minio.Endpoint),
			AccessKey: getEnv("MINIO_ACCESS_KEY", c.Storage.Minio.AccessKey),
			SecretKey: getEnv("MINIO_SECRET_KEY", c.Storage.Minio.SecretKey),
			Bucket:    getEnv("MINIO_BUCKET", c.Storage.Minio.Bucket),
			UseSSL:    getEnvBool("MINIO_USE_SSL", c.Storage.Minio.UseSSL),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", c.Storage.GCS.Bucket),
			ProjectID:       getEnv("GCS_PROJECT_ID", c.Storage.GCS.ProjectID),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", c.Storage.GCS.CredentialsFile),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", c.Storage.Cloudinary.CloudName),
			APIKey:    getEnv("CLOUDINARY_API_KEY", c.Storage.Cloudinary.APIKey),
			APISecret: getEnv("CLOUDINARY_API_SECRET", c.Storage.Cloudinary.APISecret),
			Folder:    getEnv("CLOUDINARY_FOLDER", c.Storage.Cloudinary.Folder),
		},
	}

	mqConfig := MQConfig{
		Backend: getEnv("MQ_BACKEND", c.MQ.Backend),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", c.MQ.RabbitMQ.URL),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", c.MQ.RabbitMQ.QueueDurable),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", c.MQ.RabbitMQ.QueueAutoDelete),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", c.MQ.RabbitMQ.PrefetchCount),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", c.MQ.PubSub.ProjectID),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", c.MQ.PubSub.CredentialsFile),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", c.MQ.PubSub.SubscriptionSuffix),
		},
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", c.ServerPort),
		Database:   dbConfig,
		Storage:    storageConfig,
		MQ:         mqConfig,
		Worker: WorkerConfig{
			SweepInterval:   getEnvDuration("WORKER_SWEEP_INTERVAL", c.Worker.SweepInterval),
			OrphanTTL:       getEnvDuration("UPLOAD_ORPHAN_TTL", c.Worker.OrphanTTL),
			ReleaseAttempts: getEnvInt("WORKER_RELEASE_ATTEMPTS", c.Worker.ReleaseAttempts),
			RetryDelay:      getEnvDuration("WORKER_RETRY_DELAY", c.Worker.RetryDelay),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", c.Log.Level),
			Format: getEnv("LOG_FORMAT", c.Log.Format),
		},
		Panel: PanelConfig{
			APIURL:       getEnv("PANEL_API_URL", c.Panel.APIURL),
			PublicURL:    getEnv("PANEL_PUBLIC_URL", c.Panel.PublicURL),
			UploadMode:   getEnv("PANEL_UPLOAD_MODE", c.Panel.UploadMode),
			CloudName:    getEnv("PANEL_CLOUD_NAME", c.Panel.CloudName),
			UploadPreset: getEnv("PANEL_UPLOAD_PRESET", c.Panel.UploadPreset),
		},
		Seed: SeedConfig{
			AdminUsername: getEnv("DEV_ADMIN_USERNAME", c.Seed.AdminUsername),
			AdminPassword: getEnv("DEV_ADMIN_PASSWORD", c.Seed.AdminPassword),
			Shelters:      c.Seed.Shelters,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}
