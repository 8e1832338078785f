// Package fcconfig loads the TOML settings shared by the flowcanvas CLI and
// hosts embedding the oracle.
package fcconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/flowcanvas/fchistory"
	"oss.terrastruct.com/flowcanvas/fclayouts"
	"oss.terrastruct.com/flowcanvas/fclayouts/fccontainer"
	"oss.terrastruct.com/flowcanvas/fcoracle"
	"oss.terrastruct.com/flowcanvas/fcstore"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"

	DEFAULT_ENGINE    = "dagre"
	DEFAULT_STORE_DIR = "flowcanvas-docs"
)

type Config struct {
	History   fchistory.ConfigurableOpts   `toml:"history"`
	Container fccontainer.ConfigurableOpts `toml:"container"`
	Layout    LayoutConfig                 `toml:"layout"`
	Store     StoreConfig                  `toml:"store"`
}

type LayoutConfig struct {
	// Engine names a bundled layout plugin.
	Engine string `toml:"engine" validate:"required"`
	fclayouts.ConfigurableOpts
}

type StoreConfig struct {
	Backend string              `toml:"backend" validate:"oneof=file redis"`
	Dir     string              `toml:"dir" validate:"required_if=Backend file"`
	Redis   fcstore.RedisConfig `toml:"redis"`
}

var validate = validator.New()

func Default() *Config {
	return &Config{
		History:   fchistory.DefaultOpts,
		Container: fccontainer.DefaultOpts,
		Layout: LayoutConfig{
			Engine:           DEFAULT_ENGINE,
			ConfigurableOpts: fclayouts.DefaultOpts,
		},
		Store: StoreConfig{
			Backend: BackendFile,
			Dir:     DEFAULT_STORE_DIR,
			Redis: fcstore.RedisConfig{
				Prefix: fcstore.DEFAULT_REDIS_PREFIX,
			},
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value; unknown keys are an error.
func Load(path string) (_ *Config, err error) {
	defer xdefer.Errorf(&err, "failed to load config %s", path)

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.Store.Backend == BackendRedis && c.Store.Redis.Addr == "" {
		return errors.New("store.redis.addr is required for the redis backend")
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// OracleOpts are the oracle settings carried by c. Callers fill in the
// registry, notifier and layout engine.
func (c *Config) OracleOpts() *fcoracle.Opts {
	history := c.History
	container := c.Container
	layout := c.Layout.ConfigurableOpts
	return &fcoracle.Opts{
		History:   &history,
		Container: &container,
		Layout:    &layout,
	}
}
