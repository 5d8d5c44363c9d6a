package config

const (
	defaultLogFile           = "maktaba.log"
	defaultLogLevel          = "info"
	defaultLogFileMaxSize    = 20
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 28
	defaultLogCompress       = false
	defaultPort              = 8080
	defaultHost              = "0.0.0.0"
	defaultData              = "/var/opt/maktaba"
	defaultPageSize          = 10
	defaultWorkerPoolSize    = 4
	defaultMaxUploadSize     = 10
	defaultWatchBatchSize    = 30
	defaultCoverHost         = "local"
	defaultCoverBucket       = "maktaba-covers"
	defaultLibrarianEmail    = ""
)

// Why use mapstructure instead of json, if use json as field tags, it can't recgnize the field, since the viper use mapstructure.
// see: https://pkg.go.dev/github.com/mitchellh/mapstructure#hdr-Field_Tags
type Options struct {
	// LogFile is the file to write logs to
	LogFile string `mapstructure:"log_file"`
	// LogLevel is the level of logging to show
	LogLevel string `mapstructure:"log_level"`
	// LogFileMaxSize is the maximum size of the log file before it is rotated
	LogFileMaxSize int `mapstructure:"log_file_max_size"`
	// LogFileMaxBackups is the maximum number of log files to keep
	LogFileMaxBackups int `mapstructure:"log_file_max_backups"`
	// LogFileMaxAge is the maximum number of days to keep a log file
	LogFileMaxAge int `mapstructure:"log_file_max_age"`
	// LogCompress is whether or not to compress the log files
	LogCompress bool `mapstructure:"log_compress"`
	// DSN is the path of the catalog database (sqlite)
	DSN string `mapstructure:"dsn_uri"`
	// Port is the port to listen on
	Port int `mapstructure:"port"`
	// Host is the host to listen on
	Host string `mapstructure:"host"`
	// Data is the directory to store data
	Data string `mapstructure:"data"`
	// PageSize is the number of books per catalog page
	PageSize int `mapstructure:"page_size"`
	// WatchBatchSize caps how many book ids one change subscription covers
	WatchBatchSize int `mapstructure:"watch_batch_size"`
	// WorkerPoolSize is the number of cover workers
	WorkerPoolSize int `mapstructure:"worker_pool_size"`
	// MaxUploadSize is the maximum size of a cover upload, in MiB
	MaxUploadSize int64 `mapstructure:"max_upload_size"`
	// CoverHost selects the cover storage backend: local or minio
	CoverHost string `mapstructure:"cover_host"`
	// For the minio cover backend
	MinioEndpoint  string `mapstructure:"minio_endpoint"`
	MinioAccessKey string `mapstructure:"minio_access_key"`
	MinioSecretKey string `mapstructure:"minio_secret_key"`
	MinioBucket    string `mapstructure:"minio_bucket"`
	MinioUseSSL    bool   `mapstructure:"minio_use_ssl"`
	// JWTSecret signs access tokens; generated at startup when unset
	JWTSecret string `mapstructure:"jwt_secret"`
	// Bootstrap librarian account, created on first start when set
	LibrarianEmail    string `mapstructure:"librarian_email"`
	LibrarianPassword string `mapstructure:"librarian_password"`
}

func GetDefaultOptions() *Options {
	Opts = &Options{
		LogFile:           defaultLogFile,
		LogLevel:          defaultLogLevel,
		LogFileMaxSize:    defaultLogFileMaxSize,
		LogFileMaxBackups: defaultLogFileMaxBackups,
		LogFileMaxAge:     defaultLogFileMaxAge,
		LogCompress:       defaultLogCompress,
		Port:              defaultPort,
		Host:              defaultHost,
		Data:              defaultData,
		PageSize:          defaultPageSize,
		WatchBatchSize:    defaultWatchBatchSize,
		WorkerPoolSize:    defaultWorkerPoolSize,
		MaxUploadSize:     defaultMaxUploadSize,
		CoverHost:         defaultCoverHost,
		MinioBucket:       defaultCoverBucket,
		LibrarianEmail:    defaultLibrarianEmail,
	}
	return Opts
}
