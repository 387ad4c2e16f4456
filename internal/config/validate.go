package config

import (
	"fmt"
	"time"

	"github.com/aretw0/checklist/internal/dialogue"
	"github.com/aretw0/checklist/internal/logging"
	"github.com/hay-kot/criterio"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("transport", c.Transport, validTransport),
		c.validateTransport(),
		c.validateSiteIDs(),
		c.validateNotify(),
		criterio.Run("teardown", c.Teardown, validTeardown),
		criterio.Run("claim_ttl", c.ClaimTTL, positiveDuration),
		criterio.Run("log.level", c.Log.Level, validLevel),
		criterio.Run("log.format", c.Log.Format, validFormat),
	)
}

func (c *Config) validateTransport() error {
	var errs criterio.FieldErrorsBuilder

	if c.Transport == TransportMQTT {
		if c.MQTT.Broker == "" {
			errs = errs.Append("mqtt.broker", fmt.Errorf("is required for the mqtt transport"))
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = errs.Append("mqtt.qos", fmt.Errorf("must be 0, 1 or 2, got %d", c.MQTT.QoS))
		}
	}
	if c.UsesRedis() {
		if c.Redis.Addr == "" {
			errs = errs.Append("redis.addr", fmt.Errorf("is required when redis is used"))
		}
		if c.Redis.DB < 0 {
			errs = errs.Append("redis.db", fmt.Errorf("cannot be negative"))
		}
	}

	return errs.ToError()
}

func (c *Config) validateSiteIDs() error {
	var errs criterio.FieldErrorsBuilder
	seen := make(map[string]bool, len(c.SiteIDs))
	for i, id := range c.SiteIDs {
		field := fmt.Sprintf("site_ids[%d]", i)
		if id == "" {
			errs = errs.Append(field, fmt.Errorf("is empty"))
			continue
		}
		if seen[id] {
			errs = errs.Append(field, fmt.Errorf("duplicate site id %q", id))
		}
		seen[id] = true
	}
	return errs.ToError()
}

func (c *Config) validateNotify() error {
	var errs criterio.FieldErrorsBuilder
	for i, cmd := range c.Notify {
		field := fmt.Sprintf("notify[%d]", i)
		if cmd.Command == "" {
			errs = errs.Append(field+".command", fmt.Errorf("is required"))
		}
		if _, err := cmd.Deadline(); err != nil {
			errs = errs.Append(field+".timeout", err)
		}
	}
	return errs.ToError()
}

func validTransport(t string) error {
	switch t {
	case TransportMQTT, TransportRedis, TransportMemory:
		return nil
	}
	return fmt.Errorf("unknown transport %q", t)
}

func validTeardown(s string) error {
	_, err := dialogue.ParseTeardownPolicy(s)
	return err
}

func positiveDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validLevel(s string) error {
	_, err := logging.ParseLevel(s)
	return err
}

func validFormat(s string) error {
	if !logging.ValidFormat(s) {
		return fmt.Errorf("unknown log format %q", s)
	}
	return nil
}
