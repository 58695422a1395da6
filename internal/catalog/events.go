// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// EventDefinition describes one event of ops_events.yaml.
type EventDefinition struct {
	Name        string `yaml:"event_name"`
	Category    string `yaml:"event_category"`
	ID          int    `yaml:"event_ID"`
	Severity    string `yaml:"severity"`
	Keys        string `yaml:"keys"`
	Description string `yaml:"event_description_template"`
}

// KeyNames returns the comma separated keys of the definition.
func (d EventDefinition) KeyNames() []string {
	var keys []string

	for k := range strings.SplitSeq(d.Keys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}

	return keys
}

// EventCatalog is the content of ops_events.yaml.
type EventCatalog struct {
	Definitions []EventDefinition `yaml:"event_definitions"`
}

// ByName returns the definition with the given event name.
func (c *EventCatalog) ByName(name string) (EventDefinition, bool) {
	for _, d := range c.Definitions {
		if d.Name == name {
			return d, true
		}
	}

	return EventDefinition{}, false
}

// ByCategory returns the definitions of a category in catalog order. An empty category
// returns every definition.
func (c *EventCatalog) ByCategory(category string) []EventDefinition {
	if category == "" {
		return c.Definitions
	}

	var defs []EventDefinition

	for _, d := range c.Definitions {
		if strings.EqualFold(d.Category, category) {
			defs = append(defs, d)
		}
	}

	return defs
}

// Validate checks that names and IDs are present and unique.
func (c *EventCatalog) Validate() error {
	var result error

	names := make(map[string]struct{}, len(c.Definitions))
	ids := make(map[int]string, len(c.Definitions))

	for i, d := range c.Definitions {
		if d.Name == "" {
			result = multierror.Append(result, fmt.Errorf("event %d: missing event_name", i))
			continue
		}

		if _, ok := names[d.Name]; ok {
			result = multierror.Append(result, fmt.Errorf("event %s: duplicate event_name", d.Name))
		}

		names[d.Name] = struct{}{}

		if other, ok := ids[d.ID]; ok {
			result = multierror.Append(result, fmt.Errorf("event %s: event_ID %d already used by %s", d.Name, d.ID, other))
		}

		ids[d.ID] = d.Name
	}

	return result
}

// Events loads the event catalog.
func (c *Catalog) Events() (*EventCatalog, error) {
	ec := &EventCatalog{}
	if err := c.readYAML(EventsFile, ec); err != nil {
		return nil, err
	}

	if err := ec.Validate(); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: %s", ErrInvalidCatalog, EventsFile), err)
	}

	return ec, nil
}
