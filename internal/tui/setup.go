package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/ccpace/internal/config"
	"github.com/theirongolddev/ccpace/internal/tui/theme"
)

// setupValues holds the first-run form answers.
type setupValues struct {
	Source     string
	SessionKey string
	Theme      string
}

func newSetupValues(cfg config.Config) *setupValues {
	return &setupValues{
		Source:     cfg.Usage.Source,
		SessionKey: cfg.ClaudeAI.SessionKey,
		Theme:      cfg.Appearance.Theme,
	}
}

func validateSessionKey(s string) error {
	s = strings.TrimSpace(s)
	if s != "" && !strings.HasPrefix(s, "sk-ant-") {
		return fmt.Errorf("session keys start with sk-ant-")
	}
	return nil
}

func newSetupForm(v *setupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to ccpace").
				Description("Shows your Claude usage windows and whether you are on pace.\n"),
			huh.NewSelect[string]().
				Title("Where should usage come from?").
				Options(
					huh.NewOption("Safari (reads claude.ai/settings/usage)", config.SourceSafari),
					huh.NewOption("claude.ai API (needs a session key)", config.SourceAPI),
					huh.NewOption("Saved page text file", config.SourceText),
				).
				Value(&v.Source),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("claude.ai session key").
				Description("The sessionKey cookie from claude.ai. Leave blank to skip.").
				Placeholder("sk-ant-sid01-...").
				EchoMode(huh.EchoModePassword).
				Validate(validateSessionKey).
				Value(&v.SessionKey),
		).WithHideFunc(func() bool { return v.Source != config.SourceAPI }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.Theme),
		),
	).WithShowHelp(false)
}

// apply writes the answers into cfg, activates the theme and saves.
func (v *setupValues) apply(cfg config.Config) (config.Config, error) {
	if v.Source != "" {
		cfg.Usage.Source = v.Source
	}
	if key := strings.TrimSpace(v.SessionKey); key != "" {
		cfg.ClaudeAI.SessionKey = key
	}
	if v.Theme != "" {
		cfg.Appearance.Theme = v.Theme
		theme.SetActive(v.Theme)
	}
	if err := config.Save(cfg); err != nil {
		return cfg, fmt.Errorf("saving config: %w", err)
	}
	return cfg, nil
}

// RunSetup runs the setup form on its own and saves the result.
func RunSetup(cfg config.Config) (config.Config, error) {
	v := newSetupValues(cfg)
	if err := newSetupForm(v).Run(); err != nil {
		return cfg, err
	}
	return v.apply(cfg)
}
