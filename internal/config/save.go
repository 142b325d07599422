package config

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validate is the hard gate applied before anything is written to disk. It
// only checks structure; NormalizeAndValidate covers semantics.
func Validate(cfg Config) error {
	var v Validation

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		v.addErr("app.port must be 1..65535")
	}

	for name, rules := range map[string][]Rule{
		"scoring.title_rules":   cfg.Scoring.TitleRules,
		"scoring.keyword_rules": cfg.Scoring.KeywordRules,
	} {
		for i, r := range rules {
			if strings.TrimSpace(r.Tag) == "" {
				v.addErr("%s[%d].tag is required", name, i)
			}
			if len(r.Any) == 0 {
				v.addErr("%s[%d].any must have at least 1 term", name, i)
			}
			for j, term := range r.Any {
				if term == "" {
					v.addErr("%s[%d].any[%d] cannot be empty", name, i, j)
				}
			}
		}
	}
	for i, p := range cfg.Scoring.Penalties {
		if strings.TrimSpace(p.Reason) == "" {
			v.addErr("scoring.penalties[%d].reason is required", i)
		}
		if len(p.Any) == 0 {
			v.addErr("scoring.penalties[%d].any must have at least 1 term", i)
		}
	}

	for _, source := range boardSources {
		for i, c := range cfg.boards(source).Companies {
			if strings.TrimSpace(c.Slug) == "" {
				v.addErr("discovery.%s.companies[%d].slug is required", source, i)
			}
		}
	}

	if v.OK() {
		return nil
	}
	return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

// SaveAtomic validates cfg and replaces path with it. The previous file is
// kept as path.bak.
func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	bak := path + ".bak"
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(bak)
		if err := os.Rename(path, bak); err != nil {
			return err
		}
	}
	return writeViaTemp(path, b)
}
