package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_EXPIRY_MINUTES", "")
	t.Setenv("DB_DRIVER", "")
	Load()

	if AppConfig.JWT.ExpiryMinutes != 30 {
		t.Fatalf("expected 30 minute token expiry, got %d", AppConfig.JWT.ExpiryMinutes)
	}
	if AppConfig.JWT.TokenTTL() != 30*time.Minute {
		t.Fatalf("unexpected token ttl %v", AppConfig.JWT.TokenTTL())
	}
	if AppConfig.Reset.CodeTTL() != 5*time.Minute {
		t.Fatalf("unexpected reset code ttl %v", AppConfig.Reset.CodeTTL())
	}
	if AppConfig.Database.Driver != "postgres" {
		t.Fatalf("expected postgres driver, got %s", AppConfig.Database.Driver)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("SMTP_TLS", "false")
	t.Setenv("JWT_EXPIRY_MINUTES", "abc")
	Load()

	brokers := AppConfig.Kafka.Brokers
	if len(brokers) != 2 || brokers[0] != "k1:9092" || brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", brokers)
	}
	if AppConfig.SMTP.TLS {
		t.Fatal("expected SMTP TLS disabled")
	}
	if AppConfig.JWT.ExpiryMinutes != 30 {
		t.Fatalf("invalid int should fall back to default, got %d", AppConfig.JWT.ExpiryMinutes)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults in debug", func(*Config) {}, false},
		{"default secret in release", func(c *Config) { c.Server.GinMode = "release" }, true},
		{"custom secret in release", func(c *Config) {
			c.Server.GinMode = "release"
			c.JWT.Secret = "something-else"
		}, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, true},
		{"zero expiry", func(c *Config) { c.JWT.ExpiryMinutes = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Load()
			cfg := *AppConfig
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDSNPrefersURL(t *testing.T) {
	c := DatabaseConfig{URL: "postgres://u:p@h/db", Host: "ignored"}
	if c.DSN() != "postgres://u:p@h/db" {
		t.Fatalf("unexpected dsn %s", c.DSN())
	}
	c.URL = ""
	c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode = "db", "5432", "u", "p", "care", "disable"
	want := "host=db port=5432 user=u password=p dbname=care sslmode=disable TimeZone=UTC"
	if c.DSN() != want {
		t.Fatalf("got %q want %q", c.DSN(), want)
	}
}
