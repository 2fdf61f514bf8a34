package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags_OverridesDefaults(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"app",
		"-a", ":9999",
		"-d", "postgres://u:p@host:5432/db",
		"-s", "flagsecret",
		"-t", "60",
		"-w", "5",
		"-b", "imgbucket",
	}

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, ":9999", c.EndpointAddr)
	assert.Equal(t, "postgres://u:p@host:5432/db", c.DatabaseDSN)
	assert.Equal(t, "flagsecret", c.SecretKey)
	assert.Equal(t, 60*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 5*time.Minute, c.UploadTimeout)
	assert.Equal(t, "imgbucket", c.S3Bucket)
}

func TestParseFlags_UnknownFlagsIgnored(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"app", "-z", "whatever", "-a", ":7070"}

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, ":7070", c.EndpointAddr)
}
