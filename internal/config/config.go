package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/compozy/semtag/internal/domain"
	"github.com/spf13/viper"
)

type Config struct {
	RepoPath    string           `mapstructure:"repo_path"`
	RemoteName  string           `mapstructure:"remote_name"`
	MainBranch  string           `mapstructure:"main_branch"`
	LogLevel    string           `mapstructure:"log_level"`
	LogFormat   string           `mapstructure:"log_format"`
	GithubToken string           `mapstructure:"github_token"`
	StateDir    string           `mapstructure:"state_dir"`
	RecordState bool             `mapstructure:"record_state"`
	MaxRuns     int              `mapstructure:"max_recorded_runs"`
	Versioning  VersioningConfig `mapstructure:"versioning"`
	Tagging     TaggingConfig    `mapstructure:"tagging"`
}

// VersioningConfig holds the branch naming convention used for prediction.
type VersioningConfig struct {
	BranchDelimiter           string   `mapstructure:"branch_delimiter"`
	MajorTypes                []string `mapstructure:"major_types"`
	MinorTypes                []string `mapstructure:"minor_types"`
	PatchTypes                []string `mapstructure:"patch_types"`
	BreakingChars             []string `mapstructure:"breaking_chars"`
	CapitalizeFirstIsBreaking bool     `mapstructure:"capitalize_first_is_breaking"`
	DefaultVersion            string   `mapstructure:"default_version"`
}

// TaggingConfig controls how version tags are written.
type TaggingConfig struct {
	Annotated   bool   `mapstructure:"annotated"`
	Message     string `mapstructure:"message"`
	TaggerName  string `mapstructure:"tagger_name"`
	TaggerEmail string `mapstructure:"tagger_email"`
	// DeleteOnPushFailure removes the tag created by apply when its push fails.
	DeleteOnPushFailure bool `mapstructure:"delete_on_push_failure"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	vocab := domain.DefaultVocabulary()
	return &Config{
		RepoPath:   ".",
		RemoteName: "origin",
		MainBranch: "main",
		LogLevel:   "info",
		LogFormat:  "console",
		StateDir:   ".semtag-state",
		MaxRuns:    20,
		Versioning: VersioningConfig{
			BranchDelimiter:           vocab.Delimiter,
			MajorTypes:                vocab.Major,
			MinorTypes:                vocab.Minor,
			PatchTypes:                vocab.Patch,
			BreakingChars:             vocab.BreakingChars,
			CapitalizeFirstIsBreaking: vocab.CapitalizeFirstIsBreaking,
			DefaultVersion:            domain.DefaultVersion,
		},
		Tagging: TaggingConfig{
			Message:     "Release %s",
			TaggerName:  "semtag",
			TaggerEmail: "semtag@users.noreply.github.com",
		},
	}
}

// Vocabulary returns the branch naming convention as a domain value.
func (c *Config) Vocabulary() domain.Vocabulary {
	return domain.Vocabulary{
		Delimiter:                 c.Versioning.BranchDelimiter,
		Major:                     c.Versioning.MajorTypes,
		Minor:                     c.Versioning.MinorTypes,
		Patch:                     c.Versioning.PatchTypes,
		BreakingChars:             c.Versioning.BreakingChars,
		CapitalizeFirstIsBreaking: c.Versioning.CapitalizeFirstIsBreaking,
	}
}

// InitialVersion returns the parsed default_version.
func (c *Config) InitialVersion() (*domain.Version, error) {
	return domain.ParseVersion(c.Versioning.DefaultVersion)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.RepoPath == "" {
		return fmt.Errorf("repo_path cannot be empty")
	}
	if c.RemoteName == "" {
		return fmt.Errorf("remote_name cannot be empty")
	}
	if c.MainBranch == "" {
		return fmt.Errorf("main_branch cannot be empty")
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format %q: expected console or json", c.LogFormat)
	}
	if c.RecordState {
		if c.StateDir == "" {
			return fmt.Errorf("state_dir cannot be empty when record_state is enabled")
		}
		if strings.Contains(c.StateDir, "..") {
			return fmt.Errorf("state_dir contains invalid path traversal")
		}
		if c.MaxRuns < 0 {
			return fmt.Errorf("max_recorded_runs cannot be negative")
		}
	}
	if err := c.Vocabulary().Validate(); err != nil {
		return fmt.Errorf("invalid versioning configuration: %w", err)
	}
	if _, err := c.InitialVersion(); err != nil {
		return fmt.Errorf("invalid versioning.default_version: %w", err)
	}
	if c.Tagging.Annotated {
		if c.Tagging.TaggerName == "" || c.Tagging.TaggerEmail == "" {
			return fmt.Errorf("tagging.tagger_name and tagging.tagger_email are required for annotated tags")
		}
	}
	return nil
}

// ValidateGitHubToken validates GitHub token format (exported for reuse)
func ValidateGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if len(token) < 40 {
		return fmt.Errorf("token too short: expected at least 40 characters")
	}
	classicPAT := regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
	fineGrainedPAT := regexp.MustCompile(`^github_pat_[a-zA-Z0-9_]{82}$`)
	appToken := regexp.MustCompile(`^ghs_[a-zA-Z0-9]{36}$`)
	oauthToken := regexp.MustCompile(`^gho_[a-zA-Z0-9]{36}$`)
	personalToken := regexp.MustCompile(`^ghp_[a-zA-Z0-9]{36}$`)
	if !classicPAT.MatchString(token) &&
		!fineGrainedPAT.MatchString(token) &&
		!appToken.MatchString(token) &&
		!oauthToken.MatchString(token) &&
		!personalToken.MatchString(token) {
		return fmt.Errorf("invalid token format")
	}
	return nil
}

// ValidateGitHubOwnerRepo validates GitHub owner and repository names (exported for reuse)
func ValidateGitHubOwnerRepo(owner, repo string) error {
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if repo == "" {
		return fmt.Errorf("repository cannot be empty")
	}
	validName := regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)
	if !validName.MatchString(owner) {
		return fmt.Errorf("invalid owner format: %s", owner)
	}
	if len(owner) > 39 {
		return fmt.Errorf("owner too long: maximum 39 characters")
	}
	if !validName.MatchString(repo) {
		return fmt.Errorf("invalid repository format: %s", repo)
	}
	if len(repo) > 100 {
		return fmt.Errorf("repository too long: maximum 100 characters")
	}
	return nil
}

// ParseGitHubSlug splits an "owner/repo" slug and validates both halves.
func ParseGitHubSlug(slug string) (string, string, error) {
	owner, repo, found := strings.Cut(strings.TrimSuffix(strings.TrimSpace(slug), ".git"), "/")
	if !found {
		return "", "", fmt.Errorf("invalid repository slug %q: expected owner/repo", slug)
	}
	if err := ValidateGitHubOwnerRepo(owner, repo); err != nil {
		return "", "", err
	}
	return owner, repo, nil
}

// LoadConfig reads .semtag.yaml (or configFile when set), SEMTAG_* and
// GITHUB_TOKEN environment variables, and applies defaults.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".semtag")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	// Configure environment variables
	v.SetEnvPrefix("SEMTAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// BindEnv allows multiple env vars - it will check them in order
	if err := v.BindEnv("github_token", "SEMTAG_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind github_token env: %w", err)
	}
	setDefaults(v, DefaultConfig())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can resolve nested ones.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("repo_path", d.RepoPath)
	v.SetDefault("remote_name", d.RemoteName)
	v.SetDefault("main_branch", d.MainBranch)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("github_token", d.GithubToken)
	v.SetDefault("state_dir", d.StateDir)
	v.SetDefault("record_state", d.RecordState)
	v.SetDefault("max_recorded_runs", d.MaxRuns)
	v.SetDefault("versioning.branch_delimiter", d.Versioning.BranchDelimiter)
	v.SetDefault("versioning.major_types", d.Versioning.MajorTypes)
	v.SetDefault("versioning.minor_types", d.Versioning.MinorTypes)
	v.SetDefault("versioning.patch_types", d.Versioning.PatchTypes)
	v.SetDefault("versioning.breaking_chars", d.Versioning.BreakingChars)
	v.SetDefault("versioning.capitalize_first_is_breaking", d.Versioning.CapitalizeFirstIsBreaking)
	v.SetDefault("versioning.default_version", d.Versioning.DefaultVersion)
	v.SetDefault("tagging.annotated", d.Tagging.Annotated)
	v.SetDefault("tagging.message", d.Tagging.Message)
	v.SetDefault("tagging.tagger_name", d.Tagging.TaggerName)
	v.SetDefault("tagging.tagger_email", d.Tagging.TaggerEmail)
	v.SetDefault("tagging.delete_on_push_failure", d.Tagging.DeleteOnPushFailure)
}
