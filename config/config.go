package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	domainerrors "curator/internal/domain/errors"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath = "."

	defaultHTTPPort         = 8080
	defaultLockoutThreshold = 5
	defaultLockoutWindow    = 15 * time.Minute
	defaultIdleTimeout      = 30 * time.Minute
	defaultLoginDelay       = 400 * time.Millisecond
	defaultOwnerUsername    = "admin"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port     int `json:"port" yaml:"port"`
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	// Owner is the seed account created on first boot. The credential is
	// required configuration so a default secret never ships to production.
	Owner *OwnerConfig `json:"owner" yaml:"owner"`

	// Firebase holds the remote-store connection parameters. All of them
	// are required; startup aborts with one aggregated error otherwise.
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	// Local configures the client-resident stores.
	Local *LocalConfig `json:"local" yaml:"local"`

	// PubSub configuration for migration event publishing
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	BcryptCost int `json:"bcryptCost" yaml:"bcryptCost"`

	// LockoutThreshold is the number of failed attempts inside the window
	// that locks an account.
	LockoutThreshold int `json:"lockoutThreshold" yaml:"lockoutThreshold"`

	// LockoutWindow is how long accumulated failures count toward a lock.
	LockoutWindow time.Duration `json:"lockoutWindow" yaml:"lockoutWindow"`

	// IdleTimeout expires sessions that sat inactive longer than this.
	IdleTimeout time.Duration `json:"idleTimeout" yaml:"idleTimeout"`

	// LoginDelay pads every credential check to a fixed response time.
	LoginDelay time.Duration `json:"loginDelay" yaml:"loginDelay"`
}

// OwnerConfig defines the bootstrap owner account
type OwnerConfig struct {
	Username   string `json:"username" yaml:"username"`
	Credential string `json:"credential" yaml:"credential"`
}

// FirebaseConfig defines the remote document/blob store connection
type FirebaseConfig struct {
	APIKey          string `json:"apiKey" yaml:"apiKey"`
	ProjectID       string `json:"projectId" yaml:"projectId"`
	AuthDomain      string `json:"authDomain" yaml:"authDomain"`
	StorageBucket   string `json:"storageBucket" yaml:"storageBucket"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
}

// LocalConfig defines where the client-resident stores live on disk
type LocalConfig struct {
	// DataDir holds the credential store file.
	DataDir string `json:"dataDir" yaml:"dataDir"`

	// LegacyDir holds the pre-migration image blobs and string entries.
	LegacyDir string `json:"legacyDir" yaml:"legacyDir"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "google" for Google Pub/Sub, empty to disable
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint that receives push-format messages (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: FIREBASE_PROJECTID -> firebase.projectId (not firebase.projectid)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = defaultHTTPPort
	}
	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.LockoutThreshold <= 0 {
		cfg.Auth.LockoutThreshold = defaultLockoutThreshold
	}
	if cfg.Auth.LockoutWindow <= 0 {
		cfg.Auth.LockoutWindow = defaultLockoutWindow
	}
	if cfg.Auth.IdleTimeout <= 0 {
		cfg.Auth.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Auth.LoginDelay <= 0 {
		cfg.Auth.LoginDelay = defaultLoginDelay
	}
	if cfg.Owner == nil {
		cfg.Owner = &OwnerConfig{}
	}
	if cfg.Owner.Username == "" {
		cfg.Owner.Username = defaultOwnerUsername
	}
}

// Validate checks every required connection parameter and reports all
// missing names in one aggregated error. No partial startup.
func (cfg *Config) Validate() error {
	var missing []string

	if cfg.Firebase == nil {
		missing = append(missing,
			"firebase.apiKey", "firebase.projectId", "firebase.authDomain", "firebase.storageBucket")
	} else {
		if strings.TrimSpace(cfg.Firebase.APIKey) == "" {
			missing = append(missing, "firebase.apiKey")
		}
		if strings.TrimSpace(cfg.Firebase.ProjectID) == "" {
			missing = append(missing, "firebase.projectId")
		}
		if strings.TrimSpace(cfg.Firebase.AuthDomain) == "" {
			missing = append(missing, "firebase.authDomain")
		}
		if strings.TrimSpace(cfg.Firebase.StorageBucket) == "" {
			missing = append(missing, "firebase.storageBucket")
		}
	}

	// The owner seed credential must come from deployment configuration;
	// the bootstrap fails closed rather than shipping a literal secret.
	if cfg.Owner == nil || strings.TrimSpace(cfg.Owner.Credential) == "" {
		missing = append(missing, "owner.credential")
	}

	if len(missing) > 0 {
		return domainerrors.NewConfigurationMissingError(missing)
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
