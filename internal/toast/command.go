package toast

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/hbomb79/vidinfo/pkg/logger"
)

var ErrUnsupportedPlatform = errors.New("no notification command available for this platform")

// commandNotifier is a resolved notification command. A provider creates at
// most one and reuses it for every notification.
type commandNotifier struct {
	bin  string
	args func(title string, message string, seconds int) []string
}

// commandProvider shows notifications by running a platform notification
// command. The command is started but not waited on by the caller.
type commandProvider struct {
	appName  string
	lookPath func(string) (string, error)
	goos     string

	once     sync.Once
	notifier *commandNotifier
	err      error
}

func newCommandProvider(appName string) *commandProvider {
	return &commandProvider{appName: appName, lookPath: exec.LookPath, goos: runtime.GOOS}
}

func (p *commandProvider) Name() string { return "command" }

func (p *commandProvider) Show(title string, message string, seconds int) error {
	p.once.Do(func() {
		p.notifier, p.err = p.resolve()
	})
	if p.err != nil {
		return p.err
	}

	if seconds <= 0 {
		seconds = defaultCommandSeconds
	}

	cmd := exec.Command(p.notifier.bin, p.notifier.args(title, message, seconds)...)
	if err := cmd.Start(); err != nil {
		return err
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Emit(logger.WARNING, "Notification command %s exited with error: %v\n", p.notifier.bin, err)
		}
	}()

	return nil
}

func (p *commandProvider) resolve() (*commandNotifier, error) {
	switch p.goos {
	case "darwin":
		bin, err := p.lookPath("osascript")
		if err != nil {
			return nil, err
		}

		return &commandNotifier{bin: bin, args: osascriptArgs}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		bin, err := p.lookPath("notify-send")
		if err != nil {
			return nil, err
		}

		appName := p.appName
		return &commandNotifier{bin: bin, args: func(title, message string, seconds int) []string {
			return notifySendArgs(appName, title, message, seconds)
		}}, nil
	}

	return nil, fmt.Errorf("%w (%s)", ErrUnsupportedPlatform, p.goos)
}

func notifySendArgs(appName string, title string, message string, seconds int) []string {
	return []string{"-a", appName, "-t", strconv.Itoa(seconds * 1000), title, message}
}

// osascript offers no control over how long the banner stays on
// screen, so the duration is ignored.
func osascriptArgs(title string, message string, _ int) []string {
	script := fmt.Sprintf("display notification %s with title %s", appleScriptQuote(message), appleScriptQuote(title))
	return []string{"-e", script}
}

func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
