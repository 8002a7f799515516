package config

const (
	defaultOutputDir   = "out"
	defaultLogDir      = "log"
	defaultSidecarName = ".secure_hashes"
	defaultBlockSize   = 64 * 1024
	defaultThreshold   = 500
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
	defaultJournalFile = "journal.db"
	defaultLockFile    = "mediasort.lock"
	defaultLogFile     = "mediasort.log"
)

// DefaultExtensions lists the still-image, video and raw formats relocated by
// the move pass. Matching is case-insensitive.
var DefaultExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff",
	".rw2", ".cr2",
	".avi", ".mov", ".mp4", ".mpg",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	exts := make([]string, len(DefaultExtensions))
	copy(exts, DefaultExtensions)
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Dedup: Dedup{
			SidecarName: defaultSidecarName,
			BlockSize:   defaultBlockSize,
		},
		Move: Move{
			Extensions: exts,
		},
		Split: Split{
			Threshold: defaultThreshold,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
