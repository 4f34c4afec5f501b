// Package notify sends a completion email once an apply run finishes.
//
// Delivery is best effort: a host that cannot reach its SMTP relay has still
// been provisioned, so callers log a warning on failure and move on.
package notify

import (
	"fmt"
	"net"
	"net/smtp"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config holds SMTP relay settings from the manifest's notify section.
type Config struct {
	Host     string
	Port     int
	From     string
	To       []string
	Username string
	Password string
}

// ParseConfig parses the notify configuration from a raw map. A nil result
// with nil error means the section is absent and notification is disabled.
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	if raw == nil {
		return nil, nil
	}

	cfg := &Config{Port: 25}

	host, ok := raw["smtp_host"].(string)
	if !ok || host == "" {
		return nil, fmt.Errorf("notify: smtp_host is required")
	}
	cfg.Host = host

	if port, ok := raw["smtp_port"].(int); ok {
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("notify: smtp_port %d out of range", port)
		}
		cfg.Port = port
	}

	from, ok := raw["from"].(string)
	if !ok || !strings.Contains(from, "@") {
		return nil, fmt.Errorf("notify: from must be an email address")
	}
	cfg.From = from

	rawTo, ok := raw["to"].([]interface{})
	if !ok || len(rawTo) == 0 {
		return nil, fmt.Errorf("notify: to must list at least one recipient")
	}
	for _, r := range rawTo {
		addr, ok := r.(string)
		if !ok || !strings.Contains(addr, "@") {
			return nil, fmt.Errorf("notify: recipient %v is not an email address", r)
		}
		cfg.To = append(cfg.To, addr)
	}

	if user, ok := raw["username"].(string); ok {
		cfg.Username = user
	}
	if pass, ok := raw["password"].(string); ok {
		cfg.Password = pass
	}
	return cfg, nil
}

// Summary describes a finished run for the notification body.
type Summary struct {
	Succeeded  bool
	FailedStep string
	Applied    int
	Satisfied  int
	Duration   time.Duration
}

// Notifier sends run completion emails through one SMTP relay.
type Notifier struct {
	cfg Config

	// Swapped out in tests.
	send     func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
	hostname func() (string, error)
	now      func() time.Time
}

// NewNotifier creates a Notifier for the given relay.
func NewNotifier(cfg Config) *Notifier {
	return &Notifier{
		cfg:      cfg,
		send:     smtp.SendMail,
		hostname: os.Hostname,
		now:      time.Now,
	}
}

// Notify sends the completion email for one run.
func (n *Notifier) Notify(summary Summary) error {
	host, err := n.hostname()
	if err != nil {
		host = "unknown"
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	msg := n.message(host, summary)
	if err := n.send(addr, auth, n.cfg.From, n.cfg.To, msg); err != nil {
		return fmt.Errorf("failed to send notification via %s: %w", addr, err)
	}
	return nil
}

func (n *Notifier) message(host string, summary Summary) []byte {
	outcome := "succeeded"
	if !summary.Succeeded {
		outcome = "failed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(sortedCopy(n.cfg.To), ", "))
	fmt.Fprintf(&b, "Subject: groundwork apply %s on %s\r\n", outcome, host)
	fmt.Fprintf(&b, "Date: %s\r\n", n.now().UTC().Format(time.RFC1123Z))
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "Provisioning run %s on %s.\r\n\r\n", outcome, host)
	fmt.Fprintf(&b, "Steps applied:   %d\r\n", summary.Applied)
	fmt.Fprintf(&b, "Already in place: %d\r\n", summary.Satisfied)
	fmt.Fprintf(&b, "Duration:        %s\r\n", summary.Duration.Round(time.Second))
	if summary.FailedStep != "" {
		fmt.Fprintf(&b, "Failed step:     %s\r\n", summary.FailedStep)
	}
	return []byte(b.String())
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
