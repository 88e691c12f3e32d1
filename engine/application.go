package engine

type ApplicationConfig struct {
	// The application name used in windowing and reported to the driver.
	Name string
	// Path of the TOML configuration. Empty uses the defaults.
	ConfigPath string
	// Reload the configuration whenever the file changes.
	WatchConfig bool
	// Render without opening a window.
	Headless bool
	// Stop after this many frames. Zero runs until the window closes or the
	// context is cancelled.
	MaxFrames int
	// Frame rate cap. Zero disables the limiter.
	TargetFPS int
	// Overrides log.level from the configuration when set.
	LogLevel string
}
