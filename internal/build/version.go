package build

// Set at link time via -ldflags; the defaults identify an untagged
// development build.
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion is the "<version>+<commit>" string reported by --version.
func FullVersion() string {
	return Version + "+" + Commit
}
