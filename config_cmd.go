package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# speech engine: auto, say, espeak-ng, espeak, flite, piper, or mock
engine: "auto"
# preferred voice name (substring match, case-insensitive)
voice: ""
# preferred voice language, e.g. en-US
language: ""
# speech rate between 0.5 and 2.0
speed: 1.0
# pause on the first synthesis error instead of skipping the word
strict: false
# mouse wheel support
mouse: false

# summary rendering
# style name or JSON path (default "auto")
style: "auto"
# word-wrap summaries at width (set to 0 to detect)
width: 0

# piper engine configuration
piper:
  # model: "/path/to/model.onnx"
  model: ""

# extraction and summarization gateway
gateway:
  # url: "https://reader.example.com"
  url: ""
  token: ""

# which service writes summaries: "", "gateway", or "openai".
# openai needs OPENAI_API_KEY in the environment.
summary:
  provider: ""
  model: ""

# bookmark and history storage: local, charm, or s3
storage:
  backend: "local"
  s3:
    bucket: ""
    prefix: ""
    region: ""
    endpoint: ""
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the lectern config file",
	Long:    paragraph(fmt.Sprintf("\n%s the lectern config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("lectern config\nlectern config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Lectern", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
