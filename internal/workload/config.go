// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package workload

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/schema"
)

// Charm config option names.
const (
	OptionVhost                   = "vhost"
	OptionFlaskEnv                = "flask-env"
	OptionFlaskDebug              = "flask-debug"
	OptionFlaskSecretKey          = "flask-secret-key"
	OptionFlaskSessionLifetime    = "flask-permanent-session-lifetime"
	OptionFlaskPreferredURLScheme = "flask-preferred-url-scheme"
)

const flaskOptionPrefix = "flask-"

var configFields = schema.Fields{
	OptionVhost:                   schema.String(),
	OptionFlaskEnv:                schema.String(),
	OptionFlaskDebug:              schema.Bool(),
	OptionFlaskSecretKey:          schema.String(),
	OptionFlaskSessionLifetime:    schema.ForceInt(),
	OptionFlaskPreferredURLScheme: schema.String(),
}

var configDefaults = schema.Defaults{
	OptionVhost:                   "/",
	OptionFlaskEnv:                schema.Omit,
	OptionFlaskDebug:              schema.Omit,
	OptionFlaskSecretKey:          schema.Omit,
	OptionFlaskSessionLifetime:    schema.Omit,
	OptionFlaskPreferredURLScheme: schema.Omit,
}

var configChecker = schema.FieldMap(configFields, configDefaults)

// Config is the validated charm config of the web app.
type Config struct {
	attrs map[string]interface{}
}

// ParseConfig validates the charm config returned by config-get. Options
// the charm does not know are ignored.
func ParseConfig(attrs map[string]interface{}) (Config, error) {
	known := make(map[string]interface{})
	for name, value := range attrs {
		if _, ok := configFields[name]; ok && value != nil {
			known[name] = value
		}
	}
	coerced, err := configChecker.Coerce(known, nil)
	if err != nil {
		return Config{}, NewConfigInvalidError("invalid charm config: %v", err)
	}
	cfg := Config{attrs: coerced.(map[string]interface{})}
	if err := cfg.validate(); err != nil {
		return Config{}, errors.Trace(err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if lifetime, ok := c.attrs[OptionFlaskSessionLifetime]; ok && asInt64(lifetime) <= 0 {
		return NewConfigInvalidError("%s must be greater than 0", OptionFlaskSessionLifetime)
	}
	if scheme, ok := c.attrs[OptionFlaskPreferredURLScheme]; ok {
		upper := strings.ToUpper(scheme.(string))
		if upper != "HTTP" && upper != "HTTPS" {
			return NewConfigInvalidError("%s must be one of HTTP or HTTPS, got %q", OptionFlaskPreferredURLScheme, scheme)
		}
		c.attrs[OptionFlaskPreferredURLScheme] = upper
	}
	return nil
}

// Vhost returns the AMQP virtual host the application requests.
func (c Config) Vhost() string {
	return c.attrs[OptionVhost].(string)
}

// Environment returns the FLASK_ environment variables derived from the
// flask- options that are set. Values are encoded so that the web app
// decodes them back to their original type.
func (c Config) Environment() (map[string]string, error) {
	env := make(map[string]string)
	for name, value := range c.attrs {
		if !strings.HasPrefix(name, flaskOptionPrefix) {
			continue
		}
		key := "FLASK_" + strings.ToUpper(strings.ReplaceAll(strings.TrimPrefix(name, flaskOptionPrefix), "-", "_"))
		switch v := value.(type) {
		case string:
			env[key] = v
		case bool:
			env[key] = strconv.FormatBool(v)
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return nil, errors.Annotatef(err, "encoding %s", name)
			}
			env[key] = string(data)
		}
	}
	return env, nil
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	}
	return 0
}
