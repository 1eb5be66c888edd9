package ui

// Config contains reader configuration, assembled by the CLI from
// flags, the config file, and the environment.
type Config struct {
	// Speech engine selection.
	Engine     string `env:"LECTERN_ENGINE" envDefault:"auto"`
	PiperModel string `env:"LECTERN_PIPER_MODEL"`

	// Voice defaults, applied once the engine reports its voices.
	VoiceName string  `env:"LECTERN_VOICE"`
	Language  string  `env:"LECTERN_LANGUAGE"`
	Speed     float64 `env:"LECTERN_SPEED" envDefault:"1"`

	// StrictErrors pauses playback on the first synthesis error
	// instead of skipping the failed word.
	StrictErrors bool `env:"LECTERN_STRICT_ERRORS"`

	// Extraction gateway. Empty disables remote extraction.
	GatewayURL   string `env:"LECTERN_GATEWAY_URL"`
	GatewayToken string `env:"LECTERN_GATEWAY_TOKEN"`

	// Summary overlay rendering.
	GlamourStyle    string `env:"GLAMOUR_STYLE"`
	GlamourMaxWidth uint

	EnableMouse bool

	// Data locations, resolved by the CLI.
	DataDir  string
	CacheDir string
}
