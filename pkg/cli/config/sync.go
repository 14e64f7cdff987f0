package config

import "github.com/urfave/cli/v3"

// Sync holds release sync target configuration
type Sync struct {
	Tag             string
	TargetCommitish string
	Dir             string
}

// Flags returns CLI flags for sync configuration
func (c *Sync) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "tag",
			Aliases:     []string{"t"},
			Usage:       "Release tag to sync",
			Value:       "latest",
			Destination: &c.Tag,
			Sources:     cli.EnvVars("RELEASE_SYNC_TAG"),
		},
		&cli.StringFlag{
			Name:        "target-commitish",
			Usage:       "Commit or branch for a newly created release",
			Destination: &c.TargetCommitish,
			Sources:     cli.EnvVars("RELEASE_SYNC_TARGET_COMMITISH"),
		},
		&cli.StringFlag{
			Name:        "dir",
			Aliases:     []string{"d"},
			Usage:       "Directory containing artifacts (*.json, *.tl, *.dat)",
			Value:       ".",
			Destination: &c.Dir,
			Sources:     cli.EnvVars("RELEASE_SYNC_DIR"),
		},
	}
}
