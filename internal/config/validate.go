package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap/zapcore"
)

// MinPollInterval is the shortest accepted poll interval.
const MinPollInterval = 100 * time.Millisecond

func init() {
	validation.ErrorTag = "yaml"
}

// Validate checks configuration correctness. It does not mutate cfg.
func Validate(cfg *Config) error {
	return validation.ValidateStruct(cfg,
		validation.Field(&cfg.Endpoint, validation.Required, validation.By(httpURL)),
		validation.Field(&cfg.PollInterval, validation.Required, validation.Min(MinPollInterval)),
		validation.Field(&cfg.Timeout, validation.Required, validation.By(func(value any) error {
			if d := value.(time.Duration); d >= cfg.PollInterval {
				return fmt.Errorf("must be shorter than poll_interval (%v)", cfg.PollInterval)
			}
			return nil
		})),
		validation.Field(&cfg.Network),
		validation.Field(&cfg.Pin),
		validation.Field(&cfg.MQTT),
		validation.Field(&cfg.Log),
	)
}

// Validate implements validation.Validatable.
func (n Network) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Interface, validation.Required),
		validation.Field(&n.JoinTimeout, validation.Min(time.Duration(0))),
		validation.Field(&n.PSK, validation.When(n.PSK != "", validation.By(func(any) error {
			if n.SSID == "" {
				return errors.New("requires ssid")
			}
			return nil
		}))),
	)
}

// Validate implements validation.Validatable.
func (p Pin) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Chip, validation.When(p.Enabled, validation.Required)),
		validation.Field(&p.Line, validation.Min(0)),
	)
}

// Validate implements validation.Validatable.
func (m MQTT) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Broker, validation.By(brokerURL)),
		validation.Field(&m.Heartbeat, validation.Min(time.Duration(0))),
	)
}

// Validate implements validation.Validatable.
func (l Log) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Format, validation.Required, validation.In("console", "json")),
		validation.Field(&l.Level, validation.Required, validation.By(func(value any) error {
			if _, err := zapcore.ParseLevel(value.(string)); err != nil {
				return errors.New("unknown log level")
			}
			return nil
		})),
	)
}

func httpURL(value any) error {
	u, err := url.Parse(value.(string))
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http or https URL")
	}
	return nil
}

func brokerURL(value any) error {
	s := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	switch u.Scheme {
	case "tcp", "ssl", "ws", "wss", "mqtt", "mqtts":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}
