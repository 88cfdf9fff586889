// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package webapp is the web app the charm deploys: it serves the AMQP
// broker URIs it was configured with.
package webapp

import (
	"encoding/json"
	"sort"
	"strings"
)

// DefaultPrefix is the prefix of the environment variables the web app
// reads its config from.
const DefaultPrefix = "FLASK"

// KeyRabbitMQURIs is the config key holding the broker URIs.
const KeyRabbitMQURIs = "RABBITMQ_URIS"

// Config is the web app config. Values are whatever the environment
// variables decode to: JSON values where they parse as JSON, plain
// strings otherwise.
type Config map[string]interface{}

// LoadPrefixedConfig builds a Config from the entries of environ (in
// os.Environ form) whose names start with prefix followed by an
// underscore. The prefix is stripped from the key, and a double
// underscore in the remainder nests the value under intermediate maps,
// so FLASK_DB__HOST sets Config["DB"]["HOST"].
func LoadPrefixedConfig(prefix string, environ []string) Config {
	prefix += "_"
	vars := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		vars[name] = value
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	config := make(Config)
	for _, name := range names {
		key := strings.TrimPrefix(name, prefix)
		if key == "" {
			continue
		}
		value := decodeValue(vars[name])
		parts := strings.Split(key, "__")
		current := map[string]interface{}(config)
		for _, part := range parts[:len(parts)-1] {
			next, ok := current[part].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				current[part] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = value
	}
	return config
}

func decodeValue(raw string) interface{} {
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}
