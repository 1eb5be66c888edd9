package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/lectern/speech"
	"github.com/dgnsrekt/lectern/speech/engines"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices the speech engine provides",
	Args:  cobra.NoArgs,
	RunE:  runVoices,
}

func runVoices(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	synth, err := engines.New(engines.Config{Name: cfg.Engine, PiperModel: cfg.PiperModel})
	if err != nil {
		return fmt.Errorf("speech engine: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	voices, err := synth.Voices(ctx)
	if err != nil {
		return fmt.Errorf("list voices: %w", err)
	}
	if len(voices) == 0 {
		fmt.Println("The engine reports no voices.")
		return nil
	}

	picker := speech.NewPicker(cfg.VoiceName, cfg.Language)
	picker.SetAvailable(voices)
	current, _ := picker.Current()

	for _, v := range voices {
		marker := "  "
		if v.ID == current.ID {
			marker = keyword("* ")
		}
		line := v.Name
		if v.Language != "" {
			line += "  " + v.Language
		}
		if v.Gender != "" {
			line += "  " + v.Gender
		}
		fmt.Println(marker + line)
	}
	return nil
}
