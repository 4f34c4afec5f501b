package notify

import (
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Parallel()

	t.Run("absent section disables notification", func(t *testing.T) {
		t.Parallel()

		cfg, err := ParseConfig(nil)
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("full section", func(t *testing.T) {
		t.Parallel()

		cfg, err := ParseConfig(map[string]interface{}{
			"smtp_host": "mail.example.com",
			"smtp_port": 587,
			"from":      "ops@example.com",
			"to":        []interface{}{"admin@example.com"},
			"username":  "ops",
			"password":  "hunter2",
		})
		require.NoError(t, err)
		assert.Equal(t, "mail.example.com", cfg.Host)
		assert.Equal(t, 587, cfg.Port)
		assert.Equal(t, []string{"admin@example.com"}, cfg.To)
	})

	t.Run("port defaults to 25", func(t *testing.T) {
		t.Parallel()

		cfg, err := ParseConfig(map[string]interface{}{
			"smtp_host": "mail.example.com",
			"from":      "ops@example.com",
			"to":        []interface{}{"admin@example.com"},
		})
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Port)
	})

	tests := []struct {
		name string
		raw  map[string]interface{}
	}{
		{"missing host", map[string]interface{}{"from": "a@b.c", "to": []interface{}{"d@e.f"}}},
		{"missing recipients", map[string]interface{}{"smtp_host": "m", "from": "a@b.c"}},
		{"bad from", map[string]interface{}{"smtp_host": "m", "from": "not-an-address", "to": []interface{}{"d@e.f"}}},
		{"port out of range", map[string]interface{}{"smtp_host": "m", "smtp_port": 70000, "from": "a@b.c", "to": []interface{}{"d@e.f"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseConfig(tt.raw)
			assert.Error(t, err)
		})
	}
}

func testNotifier(cfg Config) (*Notifier, *capturedSend) {
	captured := &capturedSend{}
	n := NewNotifier(cfg)
	n.send = captured.send
	n.hostname = func() (string, error) { return "tb-host-01", nil }
	n.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return n, captured
}

type capturedSend struct {
	addr string
	from string
	to   []string
	msg  []byte
	err  error
}

func (c *capturedSend) send(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
	c.addr, c.from, c.to, c.msg = addr, from, to, msg
	return c.err
}

func TestNotify_Success(t *testing.T) {
	t.Parallel()

	n, captured := testNotifier(Config{
		Host: "mail.example.com",
		Port: 587,
		From: "ops@example.com",
		To:   []string{"admin@example.com"},
	})

	err := n.Notify(Summary{Succeeded: true, Applied: 7, Satisfied: 2, Duration: 95 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, "mail.example.com:587", captured.addr)
	assert.Equal(t, "ops@example.com", captured.from)
	assert.Equal(t, []string{"admin@example.com"}, captured.to)

	body := string(captured.msg)
	assert.Contains(t, body, "Subject: groundwork apply succeeded on tb-host-01")
	assert.Contains(t, body, "Steps applied:   7")
	assert.NotContains(t, body, "Failed step")
}

func TestNotify_FailureNamesStep(t *testing.T) {
	t.Parallel()

	n, captured := testNotifier(Config{
		Host: "mail.example.com",
		Port: 25,
		From: "ops@example.com",
		To:   []string{"admin@example.com"},
	})

	require.NoError(t, n.Notify(Summary{Succeeded: false, FailedStep: "apt:package:docker.io"}))

	body := string(captured.msg)
	assert.Contains(t, body, "Subject: groundwork apply failed on tb-host-01")
	assert.Contains(t, body, "Failed step:     apt:package:docker.io")
}

func TestNotify_RelayError(t *testing.T) {
	t.Parallel()

	n, captured := testNotifier(Config{Host: "mail.example.com", Port: 25, From: "a@b.c", To: []string{"d@e.f"}})
	captured.err = errors.New("connection refused")

	err := n.Notify(Summary{Succeeded: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail.example.com:25")
}
