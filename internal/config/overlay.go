package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CompaniesFile is the optional companies.yml next to config.yml. Keys are
// source names (greenhouse, lever, smartrecruiters, workday).
type CompaniesFile map[string]struct {
	Companies []Company `yaml:"companies"`
}

// OverlayCompanies replaces the company lists in cfg with the non-empty
// ones from companiesPath. A missing file is not an error.
func OverlayCompanies(cfg *Config, companiesPath string) error {
	b, err := os.ReadFile(companiesPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var cf CompaniesFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return fmt.Errorf("%s: %w", companiesPath, err)
	}
	for source, entry := range cf {
		boards := cfg.boards(source)
		if boards == nil {
			return fmt.Errorf("%s: %q is not a company-list source", companiesPath, source)
		}
		if len(entry.Companies) > 0 {
			boards.Companies = entry.Companies
		}
	}
	return nil
}
