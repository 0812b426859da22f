package timeouts

import (
	"testing"
	"time"
)

func restoreDefaults(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		ping = DefaultPing
		short = DefaultShort
		medium = DefaultMedium
		long = DefaultLong
	})
}

func TestDefaults(t *testing.T) {
	restoreDefaults(t)

	if got := Ping(); got != DefaultPing {
		t.Errorf("Ping() = %v, want %v", got, DefaultPing)
	}
	if got := Short(); got != DefaultShort {
		t.Errorf("Short() = %v, want %v", got, DefaultShort)
	}
	if got := Medium(); got != DefaultMedium {
		t.Errorf("Medium() = %v, want %v", got, DefaultMedium)
	}
	if got := Long(); got != DefaultLong {
		t.Errorf("Long() = %v, want %v", got, DefaultLong)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	restoreDefaults(t)

	t.Setenv("TIMEOUT_SHORT", "7s")
	t.Setenv("TIMEOUT_LONG", "1m")
	t.Setenv("TIMEOUT_MEDIUM", "not-a-duration")
	t.Setenv("TIMEOUT_PING", "-1s")

	if n := ConfigureFromEnv(); n != 2 {
		t.Errorf("ConfigureFromEnv() = %d, want 2", n)
	}
	if got := Short(); got != 7*time.Second {
		t.Errorf("Short() = %v, want 7s", got)
	}
	if got := Long(); got != time.Minute {
		t.Errorf("Long() = %v, want 1m", got)
	}
	if got := Medium(); got != DefaultMedium {
		t.Errorf("Medium() = %v, want default after invalid value", got)
	}
	if got := Ping(); got != DefaultPing {
		t.Errorf("Ping() = %v, want default after non-positive value", got)
	}
}
