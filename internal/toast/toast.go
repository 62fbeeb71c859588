package toast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hbomb79/vidinfo/pkg/logger"
)

var log = logger.Get("Toast")

var ErrAllProvidersFailed = errors.New("all notification providers failed")

const (
	Title = "Video Info"

	// Durations at or above this many seconds request a long notification
	longThresholdSeconds = 5

	// The command provider cannot display a notification without a
	// positive duration.
	defaultCommandSeconds = 5
)

type Length int

const (
	Short Length = iota
	Long
)

func (l Length) String() string {
	if l == Long {
		return "long"
	}

	return "short"
}

// Timeout is the on-screen time requested for a notification of this length.
func (l Length) Timeout() time.Duration {
	if l == Long {
		return 25 * time.Second
	}

	return 7 * time.Second
}

// LengthFor maps a requested number of seconds to a notification length.
func LengthFor(seconds int) Length {
	if seconds >= longThresholdSeconds {
		return Long
	}

	return Short
}

type (
	Config struct {
		// Only "1" or a true boolean enables notifications. Like the
		// duration below this is kept as a string so that a malformed
		// value degrades to the default instead of failing the whole
		// configuration load.
		Enabled string `yaml:"enabled" env:"WGP_SHOW_TOAST" env-default:"0"`

		// Preferred on-screen time in seconds.
		Duration string `yaml:"duration_seconds" env:"WGP_TOAST_DURATION" env-default:"0"`

		AppName string `yaml:"app_name" env:"VIDINFO_TOAST_APP_NAME" env-default:"vidinfo"`
	}

	// Provider is a single mechanism capable of showing a desktop
	// notification.
	Provider interface {
		Name() string
		Show(title string, message string, seconds int) error
	}

	// Notifier shows notifications using an ordered chain of providers. The
	// first provider to succeed ends the chain; failures are logged and never
	// returned to the caller.
	Notifier struct {
		enabled   bool
		seconds   int
		providers []Provider
	}
)

// New constructs a Notifier using the D-Bus provider, falling back to the
// platform's notification command.
func New(config Config) *Notifier {
	return NewWithProviders(config, newDbusProvider(config.AppName), newCommandProvider(config.AppName))
}

func NewWithProviders(config Config, providers ...Provider) *Notifier {
	return &Notifier{
		enabled:   ParseEnabled(config.Enabled),
		seconds:   ParseSeconds(config.Duration),
		providers: providers,
	}
}

// ParseEnabled reports whether the configured value switches
// notifications on. Anything unrecognised leaves them off.
func ParseEnabled(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}

// ParseSeconds parses the configured duration, treating a missing
// or malformed value as 0.
func ParseSeconds(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}

	return v
}

func (n *Notifier) Enabled() bool { return n.enabled }

// Notify displays the message if notifications are enabled. It never fails;
// problems are logged.
func (n *Notifier) Notify(message string) {
	if !n.enabled {
		return
	}

	if err := n.show(message); err != nil {
		log.Emit(logger.WARNING, "%v\n", err)
	}
}

func (n *Notifier) show(message string) error {
	failures := make([]string, 0, len(n.providers))
	for _, p := range n.providers {
		err := p.Show(Title, message, n.seconds)
		if err == nil {
			log.Emit(logger.DEBUG, "Notification shown via %s (%s)\n", p.Name(), LengthFor(n.seconds))
			return nil
		}

		log.Emit(logger.WARNING, "%s failed, trying next provider: %v\n", p.Name(), err)
		failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
	}

	return fmt.Errorf("%w [%s]", ErrAllProvidersFailed, strings.Join(failures, "; "))
}
