package config

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed platforms/*.yaml queries.yaml
var embedded embed.FS

type Config struct {
	LLM       LLMConfig
	Browser   BrowserConfig
	Search    SearchConfig
	Scheduler SchedulerConfig
	Proxy     ProxyConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	S3        S3Config
	AMQP      AMQPConfig
	Fluent    FluentConfig
	DBPath    string
	LogPath   string
	LogLevel  string
	Platforms map[string]*PlatformConfig
	Queries   []string
}

type LLMConfig struct {
	// Providers is tried in order until one constructs.
	Providers      []string
	Timeout        time.Duration
	Temperature    float64
	GroqAPIKey     string
	GroqBaseURL    string
	GroqModel      string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	EmbeddingModel string
	EmbeddingDims  int
	GeminiAPIKey   string
	GeminiBaseURL  string
	GeminiModel    string
	OllamaBaseURL  string
	OllamaModel    string
	OllamaEmbed    string
}

type BrowserConfig struct {
	Engine            string
	Headless          bool
	VisionMode        bool
	UserDataDir       string
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	Locale            string
	TimezoneID        string
	AcceptLanguage    string
	UserAgents        []string
}

type SearchConfig struct {
	DefaultPlatforms   []string
	MaxResults         int
	MaxSteps           int
	RateLimitPerMinute int
	PlatformCooldown   time.Duration
	InterURLDelay      time.Duration
	GoogleSearch       bool
	CacheTTL           time.Duration
}

type SchedulerConfig struct {
	Cron          string
	Interval      time.Duration
	QueryCooldown time.Duration
	IndexBatch    int
	IndexInterval time.Duration
}

type ProxyConfig struct {
	URL string
}

type PostgresConfig struct {
	URL string
}

type RedisConfig struct {
	URL string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type FluentConfig struct {
	Host string
	Port int
	Tag  string
}

// PlatformConfig describes one classifieds site: where it lives, how its
// search URLs are built and which markup holds listing candidates.
type PlatformConfig struct {
	ID                 string            `yaml:"id"`
	Name               string            `yaml:"name"`
	Handler            string            `yaml:"handler"`
	Origin             string            `yaml:"origin"`
	Priority           int               `yaml:"priority"`
	MaxListings        int               `yaml:"max_listings"`
	CandidateSelectors []string          `yaml:"candidate_selectors"`
	FallbackSelector   string            `yaml:"fallback_selector"`
	MinCandidates      int               `yaml:"min_candidates"`
	LocationSelector   string            `yaml:"location_selector"`
	TitleSelector      string            `yaml:"title_selector"`
	ExcludedPaths      []string          `yaml:"excluded_paths"`
	DefaultRegion      string            `yaml:"default_region"`
	RegionSlugs        map[string]string `yaml:"region_slugs"`
	DistrictSlugs      map[string]string `yaml:"district_slugs"`
	DefaultCategory    string            `yaml:"default_category"`
	CategorySlugs      map[string]string `yaml:"category_slugs"`
	TransactionSlugs   map[string]string `yaml:"transaction_slugs"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LLM: LLMConfig{
			Providers:      getEnvList("LLM_PROVIDERS", []string{"groq", "gemini", "ollama"}),
			Timeout:        getEnvDuration("LLM_TIMEOUT", 30*time.Second),
			Temperature:    getEnvFloat("LLM_TEMPERATURE", 0.1),
			GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
			GroqBaseURL:    getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			GroqModel:      getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDims:  getEnvInt("EMBEDDING_DIMS", 1536),
			GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
			GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:    getEnv("OLLAMA_MODEL", "qwen2.5:7b"),
			OllamaEmbed:    getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		},
		Browser: BrowserConfig{
			Engine:            getEnv("BROWSER_ENGINE", "playwright"),
			Headless:          getEnvBool("HEADLESS_MODE", true),
			VisionMode:        getEnvBool("BROWSER_USE_VISION", false),
			UserDataDir:       os.Getenv("BROWSER_DATA_DIR"),
			NavigationTimeout: getEnvDuration("NAVIGATION_TIMEOUT", 60*time.Second),
			SettleDelay:       getEnvDuration("SETTLE_DELAY", 3*time.Second),
			Locale:            getEnv("BROWSER_LOCALE", "vi-VN"),
			TimezoneID:        getEnv("BROWSER_TIMEZONE", "Asia/Ho_Chi_Minh"),
			AcceptLanguage:    getEnv("BROWSER_ACCEPT_LANGUAGE", "vi-VN,vi;q=0.9,en-US;q=0.8,en;q=0.7"),
			UserAgents:        getEnvSplit("BROWSER_USER_AGENTS", "|", nil),
		},
		Search: SearchConfig{
			DefaultPlatforms:   getEnvList("SEARCH_PLATFORMS", []string{"batdongsan", "chotot"}),
			MaxResults:         getEnvInt("SEARCH_MAX_RESULTS", 20),
			MaxSteps:           getEnvInt("SEARCH_MAX_STEPS", 1),
			RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 15),
			PlatformCooldown:   getEnvDuration("PLATFORM_COOLDOWN", 5*time.Second),
			InterURLDelay:      getEnvDuration("DELAY_BETWEEN_URLS", 3*time.Second),
			GoogleSearch:       getEnvBool("GOOGLE_SEARCH_FIRST", false),
			CacheTTL:           getEnvDuration("SEARCH_CACHE_TTL", 30*time.Minute),
		},
		Scheduler: SchedulerConfig{
			Cron:          os.Getenv("SCRAPE_CRON"),
			QueryCooldown: getEnvDuration("BULK_QUERY_COOLDOWN", 5*time.Second),
			IndexBatch:    getEnvInt("INDEX_BATCH", 20),
			IndexInterval: getEnvDuration("INDEX_INTERVAL", 5*time.Minute),
		},
		Proxy:    ProxyConfig{URL: os.Getenv("PROXY_URL")},
		Postgres: PostgresConfig{URL: os.Getenv("DATABASE_URL")},
		Redis:    RedisConfig{URL: os.Getenv("REDIS_URL")},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "ap-southeast-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		AMQP: AMQPConfig{
			URL:      os.Getenv("AMQP_URL"),
			Exchange: getEnv("AMQP_EXCHANGE", "listings"),
		},
		Fluent: FluentConfig{
			Host: os.Getenv("FLUENT_HOST"),
			Port: getEnvInt("FLUENT_PORT", 24224),
			Tag:  getEnv("FLUENT_TAG", "bds_scrooper"),
		},
		DBPath:   getEnv("DB_PATH", "scraper.db"),
		LogPath:  getEnv("LOG_PATH", "daemon.log"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	platforms, err := LoadPlatforms(os.Getenv("PLATFORM_CONFIG_DIR"))
	if err != nil {
		return nil, err
	}
	cfg.Platforms = platforms

	queries, err := LoadQueries(os.Getenv("BULK_QUERIES_FILE"))
	if err != nil {
		return nil, err
	}
	cfg.Queries = queries

	return cfg, nil
}

// LoadPlatforms reads platform definitions from dir, or from the embedded
// defaults when dir is empty.
func LoadPlatforms(dir string) (map[string]*PlatformConfig, error) {
	var fsys fs.FS = embedded
	root := "platforms"
	if dir != "" {
		fsys = os.DirFS(dir)
		root = "."
	}

	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read platform configs: %w", err)
	}

	platforms := make(map[string]*PlatformConfig)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(root, entry.Name())))
		if err != nil {
			return nil, err
		}

		var p PlatformConfig
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		if p.ID == "" {
			return nil, fmt.Errorf("parse %s: missing id", entry.Name())
		}

		platforms[p.ID] = &p
	}

	return platforms, nil
}

type queryFile struct {
	Queries []string `yaml:"queries"`
}

func LoadQueries(path string) ([]string, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = embedded.ReadFile("queries.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("read bulk queries: %w", err)
	}

	var qf queryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parse bulk queries: %w", err)
	}
	return qf.Queries, nil
}

// PlatformIDs returns configured platform IDs, highest priority first.
func (c *Config) PlatformIDs() []string {
	ids := make([]string, 0, len(c.Platforms))
	for id := range c.Platforms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := c.Platforms[ids[i]].Priority, c.Platforms[ids[j]].Priority
		if pi != pj {
			return pi < pj
		}
		return ids[i] < ids[j]
	})
	return ids
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	return getEnvSplit(key, ",", defaultVal)
}

func getEnvSplit(key, sep string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
