// Package config loads the candidate profile file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"apply-agent/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

const DefaultProfilePath = "profile.yaml"

const ExampleProfileYAML = `# candidate profile used to fill application forms
first_name: Ada
last_name: Lovelace
email: ada@example.com
phone: "+44 20 7946 0000"
city: London
country: United Kingdom
linkedin: https://www.linkedin.com/in/ada
resume_path: ~/cv.pdf
years_experience: 7
current_title: Software Engineer
cover_letter: |
  I would love to join your team.
# Answers for questions that are not part of the standard profile, keyed by field name.
extra:
  notice_period: 1 month
`

var (
	ErrProfileInvalid = errors.New("invalid profile")
	ErrProfileExists  = errors.New("profile file already exists")
)

// LoadProfile reads and validates a YAML profile. A leading ~ in resume_path
// is expanded against the user's home directory.
func LoadProfile(path string) (*entity.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}

	var p entity.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}

	p.ResumePath, err = expandHome(p.ResumePath)
	if err != nil {
		return nil, err
	}

	if err := Validate(&p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}

func Validate(p *entity.Profile) error {
	var problems []string
	if strings.TrimSpace(p.Email) == "" {
		problems = append(problems, "email is required")
	} else if _, err := mail.ParseAddress(p.Email); err != nil {
		problems = append(problems, fmt.Sprintf("email %q is not an address", p.Email))
	}
	if p.FirstName == "" && p.LastName == "" {
		problems = append(problems, "first_name or last_name is required")
	}
	if p.YearsExperience < 0 {
		problems = append(problems, "years_experience must not be negative")
	}
	if p.ResumePath != "" {
		if _, err := os.Stat(p.ResumePath); err != nil {
			problems = append(problems, fmt.Sprintf("resume_path %s: %v", p.ResumePath, errors.Unwrap(err)))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrProfileInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// WriteExampleProfile creates a starter profile and refuses to overwrite one.
func WriteExampleProfile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, ErrProfileExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(ExampleProfileYAML), 0o600)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
