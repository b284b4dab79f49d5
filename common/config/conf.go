package config

type MainConfig struct {
	General   GeneralConfig   `yaml:"general"`
	Publisher PublisherConfig `yaml:"publisher"`
	S3        S3Config        `yaml:"s3"`
	Api       ApiConfig       `yaml:"api"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Sentry    SentryConfig    `yaml:"sentry"`
}

func NewDefaultMainConfig() MainConfig {
	return MainConfig{
		General: GeneralConfig{
			LogDirectory: "-",
			LogColors:    false,
			JsonLogs:     false,
			LogLevel:     "info",
		},
		Publisher: PublisherConfig{
			Directory:           "./scores",
			IndexerCache:        "./indexer-scores.csv",
			NumWorkers:          10,
			ScanIntervalSeconds: 10,
		},
		S3: S3Config{
			Endpoint:     "s3.amazonaws.com",
			Region:       "",
			BucketName:   "your-bucket-name",
			AccessKeyId:  "",
			AccessSecret: "",
			Ssl:          true,
			StorageClass: "STANDARD",
		},
		Api: ApiConfig{
			Enabled:     false,
			BindAddress: "localhost",
			Port:        8095,
		},
		Metrics: MetricsConfig{
			Enabled:     false,
			BindAddress: "localhost",
			Port:        9000,
		},
		Sentry: SentryConfig{
			Enabled:     false,
			Dsn:         "not supplied",
			Environment: "",
			Debug:       false,
		},
	}
}
