package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/tagfile/internal/filename"
	"github.com/starford/tagfile/internal/gallery"
	"github.com/starford/tagfile/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Gallery GalleryConfig     `yaml:"gallery"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Rename  RenameConfig      `yaml:"rename"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Gallery.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Rename.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// GalleryConfig points at the image folder and the extensions that count
// as images. An empty Extensions list means the built-in set.
type GalleryConfig struct {
	Path       string   `yaml:"path"`
	Extensions []string `yaml:"extensions"`
}

// Validate validates the gallery configuration.
func (c *GalleryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Extensions, validation.Each(validation.Required, validation.Length(2, 0))),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// RenameConfig holds the counter range and the length limits applied to
// new names.
type RenameConfig struct {
	Counter        filename.Range `yaml:",inline"`
	MaxPathLen     int            `yaml:"max_path_len"`
	MaxFilenameLen int            `yaml:"max_filename_len"`
}

// Validate validates the rename configuration.
func (c *RenameConfig) Validate() error {
	if err := c.Counter.Validate(); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxPathLen, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxFilenameLen, validation.Required, validation.Min(1)),
	)
}

// GalleryOptions converts the rename section into gallery service options.
func (c *RenameConfig) GalleryOptions(logger *slog.Logger) gallery.Options {
	return gallery.Options{
		Range:          c.Counter,
		MaxPathLen:     c.MaxPathLen,
		MaxFilenameLen: c.MaxFilenameLen,
		Logger:         logger,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Gallery: GalleryConfig{
			Path:       ".",
			Extensions: append([]string(nil), storage.DefaultExtensions...),
		},
		SQLite: SQLiteConfig{
			Path: "./tagfile.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Rename: RenameConfig{
			Counter:        filename.DefaultRange,
			MaxPathLen:     gallery.DefaultMaxPathLen,
			MaxFilenameLen: gallery.DefaultMaxFilenameLen,
		},
	}
}
