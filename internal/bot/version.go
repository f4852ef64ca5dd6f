package bot

// Version and CodeName identify the release.
const (
	Version  = "0.3.1"
	CodeName = "Speaking"
)
