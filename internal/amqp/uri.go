// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package amqp derives AMQP broker connection details from the data
// published by the units of an amqp relation.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("flaskamqp.amqp")

const (
	// Endpoint is the name of the relation endpoint brokers relate to.
	Endpoint = "amqp"

	// EnvURIs is the environment variable holding the JSON encoded map
	// of unit name to broker URI handed to the web app.
	EnvURIs = "FLASK_RABBITMQ_URIS"

	// DefaultVhost is the root virtual host.
	DefaultVhost = "/"
)

// Keys published by a broker unit.
const (
	KeyHostname = "hostname"
	KeyPassword = "password"
)

// Keys this application requests in its own data bag.
const (
	KeyVhost    = "vhost"
	KeyUsername = "username"
	KeyAdmin    = "admin"
)

// RelationReader gives read access to the amqp relations of a unit.
type RelationReader interface {
	// RelationIds returns the ids of the relations on the endpoint.
	RelationIds(ctx context.Context, endpoint string) ([]string, error)

	// RemoteApp returns the remote application of the relation, or an
	// empty string when it is not known.
	RemoteApp(ctx context.Context, relationId string) (string, error)

	// RelationUnits returns the remote units of the relation.
	RelationUnits(ctx context.Context, relationId string) ([]string, error)

	// UnitSettings returns the data published by a remote unit.
	UnitSettings(ctx context.Context, relationId, unitName string) (map[string]string, error)
}

// URI returns the connection URI for a broker. The root vhost is
// rendered as an empty path.
func URI(username, password, hostname, vhost string) string {
	if vhost == DefaultVhost {
		vhost = ""
	}
	return fmt.Sprintf("amqp://%s:%s@%s/%s", username, password, hostname, vhost)
}

// URIs returns a broker URI for every remote unit on an amqp relation
// that has published both its hostname and password, keyed by unit name.
// Units missing either are left out.
func URIs(ctx context.Context, reader RelationReader, username, vhost string) (map[string]string, error) {
	relationIds, err := reader.RelationIds(ctx, Endpoint)
	if err != nil {
		return nil, errors.Trace(err)
	}
	uris := make(map[string]string)
	for _, relationId := range relationIds {
		app, err := reader.RemoteApp(ctx, relationId)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if app == "" {
			continue
		}
		units, err := reader.RelationUnits(ctx, relationId)
		if err != nil {
			return nil, errors.Trace(err)
		}
		for _, unit := range units {
			settings, err := reader.UnitSettings(ctx, relationId, unit)
			if err != nil {
				return nil, errors.Annotatef(err, "reading data of %s on relation %s", unit, relationId)
			}
			hostname, ok := settings[KeyHostname]
			if !ok {
				continue
			}
			password, ok := settings[KeyPassword]
			if !ok {
				continue
			}
			uris[unit] = URI(username, password, hostname, vhost)
		}
	}
	logger.Infof("retrieved rabbitmq uris for units %v", unitNames(uris))
	return uris, nil
}

// Environment returns the environment handing uris to the web app.
func Environment(uris map[string]string) (map[string]string, error) {
	if uris == nil {
		uris = map[string]string{}
	}
	data, err := json.Marshal(uris)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return map[string]string{EnvURIs: string(data)}, nil
}

// RequestSettings returns the data this application publishes on an
// amqp relation to ask the broker for a user and vhost.
func RequestSettings(appName, vhost string) map[string]string {
	return map[string]string{
		KeyVhost:    vhost,
		KeyUsername: appName,
		KeyAdmin:    "true",
	}
}
