// Package setup provides the interactive terminal wizard that writes a
// config.yaml for the dashboard.
package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

type wizardConfig struct {
	MongoURI        string   `yaml:"mongo_uri,omitempty"`
	Database        string   `yaml:"database"`
	Pair            string   `yaml:"pair"`
	RefreshInterval string   `yaml:"refresh_interval"`
	IdleInterval    string   `yaml:"idle_interval"`
	Timezone        string   `yaml:"timezone"`
	GateEnabled     bool     `yaml:"gate_enabled"`
	ReloadRecords   bool     `yaml:"reload_records"`
	DashboardAddr   string   `yaml:"dashboard_addr"`
	TLSDomains      []string `yaml:"tls_domains,omitempty"`
}

// RunWizard launches the terminal configuration wizard and writes
// config.yaml in the working directory.
func RunWizard() error {
	var (
		mongoURI      string
		database      = "Zoho"
		pair          = "USD_BRL"
		refreshStr    = "60s"
		idleStr       = "60s"
		timezone      = "America/Sao_Paulo"
		gateEnabled   = true
		reloadRecords = false
		addr          = ":8080"
		confirm       bool
	)

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CAMBIOVIVO CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Live quotes, reconciled with your order book.\n"))

	fmt.Println(stepStyle.Render("STEP 1: RECORD STORE"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("MongoDB URI").
				Description("Leave empty to use MONGO_URI from the environment or .env").
				Value(&mongoURI),
			huh.NewInput().
				Title("Database").
				Description("Database holding the CRM collections").
				Value(&database).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("database cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CAMBIOVIVO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: QUOTE FEED"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Currency Pair").
				Description("Must contain underscore (e.g. USD_BRL)").
				Value(&pair).
				Validate(func(s string) error {
					if !containsUnderscore(s) {
						return fmt.Errorf("invalid format: must be BASE_QUOTE (e.g. USD_BRL)")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CAMBIOVIVO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Refresh Interval").
				Description("Duration string (e.g. 30s, 1m)").
				Value(&refreshStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Idle Interval").
				Description("Re-check interval outside business hours").
				Value(&idleStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Timezone").
				Description("IANA name for business hours and the clock").
				Value(&timezone).
				Validate(func(s string) error {
					_, err := time.LoadLocation(s)
					return err
				}),
			huh.NewConfirm().
				Title("Pause outside business hours?").
				Description("Mon-Fri, 08:00-12:30 and 13:30-18:00").
				Value(&gateEnabled),
			huh.NewConfirm().
				Title("Re-query orders every cycle?").
				Description("Off: collections are loaded once at startup").
				Value(&reloadRecords),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CAMBIOVIVO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: DASHBOARD"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen Address").
				Value(&addr),
			huh.NewConfirm().
				Title("Write config.yaml?").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		fmt.Println("aborted, nothing written")
		return nil
	}

	out, err := yaml.Marshal(wizardConfig{
		MongoURI:        mongoURI,
		Database:        database,
		Pair:            pair,
		RefreshInterval: refreshStr,
		IdleInterval:    idleStr,
		Timezone:        timezone,
		GateEnabled:     gateEnabled,
		ReloadRecords:   reloadRecords,
		DashboardAddr:   addr,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile("config.yaml", out, 0o644); err != nil {
		return err
	}

	fmt.Println(stepStyle.Render("config.yaml written, run: cambiovivo --config config.yaml"))
	return nil
}

func validateDuration(s string) error {
	_, err := time.ParseDuration(s)
	return err
}

func containsUnderscore(s string) bool {
	for _, r := range s {
		if r == '_' {
			return true
		}
	}
	return false
}
