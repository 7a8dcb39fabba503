package notification

import (
	"errors"
	"runtime"
)

// manager implements NotificationManager
type manager struct {
	channels        []NotificationChannel
	commandExecutor CommandExecutor
	platform        string
	sendCallback    func(Notification)
	breaker         *Breaker
}

// NewManager creates a manager with the channels enabled in cfg
func NewManager(cfg *Config, opts ...Option) (NotificationManager, error) {
	m := &manager{
		channels: []NotificationChannel{},
		platform: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(m)
	}

	if cfg.OSNotification.Enabled {
		executor := m.commandExecutor
		if executor == nil {
			executor = &realCommandExecutor{}
		}
		var ch NotificationChannel = newOSNotificationChannel(cfg.OSNotification, executor, m.platform)
		if m.breaker != nil {
			ch = &guardedChannel{name: "desktop", channel: ch, breaker: m.breaker}
		}
		m.channels = append(m.channels, ch)
	}

	if cfg.LogNotification.Enabled {
		if cfg.LogNotification.Path == "" {
			return nil, errors.New("log notification enabled without a path")
		}
		m.channels = append(m.channels, NewLogNotificationChannel(cfg.LogNotification))
	}

	return m, nil
}

// Send dispatches n to all channels. Every channel is tried; the joined
// errors of the failing ones are returned. A channel suspended by its
// breaker is skipped without an error.
func (m *manager) Send(n Notification) error {
	if m.sendCallback != nil {
		m.sendCallback(n)
	}

	var errs []error
	for _, ch := range m.channels {
		err := ch.Send(n)
		var suspended *ErrChannelSuspended
		if err != nil && !errors.As(err, &suspended) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close cleans up resources
func (m *manager) Close() error {
	var errs []error
	for _, ch := range m.channels {
		if err := ch.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ChannelCount returns the number of active channels
func (m *manager) ChannelCount() int {
	return len(m.channels)
}
