package version

// Build information, set with -ldflags at release time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
