package config

import (
	"time"

	"github.com/m-mizutani/release-sync/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Retry holds request retry and upload pacing configuration
type Retry struct {
	MaxRetries    int
	BaseDelayMs   int
	MaxDelayMs    int
	UploadDelayMs int
}

// Flags returns CLI flags for retry configuration
func (c *Retry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "max-retries",
			Usage:       "Maximum retries per request on rate limit or server errors",
			Value:       model.DefaultMaxRetries,
			Destination: &c.MaxRetries,
			Sources:     cli.EnvVars("RELEASE_SYNC_MAX_RETRIES"),
		},
		&cli.IntFlag{
			Name:        "base-delay-ms",
			Usage:       "Base delay of exponential backoff in milliseconds",
			Value:       model.DefaultBaseDelayMs,
			Destination: &c.BaseDelayMs,
			Sources:     cli.EnvVars("RELEASE_SYNC_BASE_DELAY_MS"),
		},
		&cli.IntFlag{
			Name:        "max-delay-ms",
			Usage:       "Upper bound of exponential backoff in milliseconds",
			Value:       model.MaxDelayCeilingMs,
			Destination: &c.MaxDelayMs,
			Sources:     cli.EnvVars("RELEASE_SYNC_MAX_DELAY_MS"),
		},
		&cli.IntFlag{
			Name:        "upload-delay-ms",
			Usage:       "Pause between consecutive uploads in milliseconds",
			Value:       700,
			Destination: &c.UploadDelayMs,
			Sources:     cli.EnvVars("RELEASE_SYNC_UPLOAD_DELAY_MS"),
		},
	}
}

// Policy returns the validated retry policy
func (c *Retry) Policy() (model.RetryPolicy, error) {
	policy := model.RetryPolicy{
		MaxRetries:  c.MaxRetries,
		BaseDelayMs: c.BaseDelayMs,
		MaxDelayMs:  c.MaxDelayMs,
	}
	if err := policy.Validate(); err != nil {
		return model.RetryPolicy{}, err
	}
	return policy, nil
}

// UploadDelay returns the pacing delay, treating negative values as zero
func (c *Retry) UploadDelay() time.Duration {
	if c.UploadDelayMs <= 0 {
		return 0
	}
	return time.Duration(c.UploadDelayMs) * time.Millisecond
}
