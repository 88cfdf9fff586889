// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package amqp

import (
	"github.com/juju/collections/set"
)

// unitNames returns the sorted unit names of uris. URIs carry passwords
// and are never logged.
func unitNames(uris map[string]string) []string {
	units := set.NewStrings()
	for unit := range uris {
		units.Add(unit)
	}
	return units.SortedValues()
}
