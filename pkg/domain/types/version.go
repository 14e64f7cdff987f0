package types

// Version is the release-sync version, overridden at build time via -ldflags
var Version = "dev"

const (
	// DefaultAPIBaseURL is the public GitHub REST API endpoint
	DefaultAPIBaseURL = "https://api.github.com"

	// GitHubAPIVersion is sent as X-GitHub-Api-Version on every request
	GitHubAPIVersion = "2022-11-28"

	// GitHubMediaType is the versioned JSON media type requested via Accept
	GitHubMediaType = "application/vnd.github+json"
)

// UserAgent returns the User-Agent header value for outgoing requests
func UserAgent() string {
	return "release-sync/" + Version
}
