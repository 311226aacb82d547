package build

// Set at build time via -ldflags "-X github.com/armadaproject/uilatency/internal/uilatency/build.ReleaseVersion=...".
var (
	ReleaseVersion = "UNKNOWN_VERSION"
	GitCommit      = "UNKNOWN_GIT_COMMIT"
	GoVersion      = "UNKNOWN_GO_VERSION"
	BuildTime      = "UNKNOWN_BUILD_TIME"
)
