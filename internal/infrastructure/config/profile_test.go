package config

import (
	"os"
	"path/filepath"
	"testing"

	"apply-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	resume := filepath.Join(dir, "cv.pdf")
	require.NoError(t, os.WriteFile(resume, []byte("%PDF"), 0o600))

	path := writeProfile(t, `
first_name: Ada
last_name: Lovelace
email: ada@example.com
phone: "+44 20 7946 0000"
resume_path: `+resume+`
years_experience: 7
extra:
  notice_period: 1 month
`)

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.FullName())
	assert.Equal(t, resume, p.ResumePath)

	v, ok := p.Value(entity.ProfileExperience)
	assert.True(t, ok)
	assert.Equal(t, "7", v)

	v, ok = p.Value("notice_period")
	assert.True(t, ok)
	assert.Equal(t, "1 month", v)
}

func TestLoadProfile_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing email": "first_name: Ada\n",
		"bad email":     "first_name: Ada\nemail: not-an-email\n",
		"no name":       "email: ada@example.com\n",
		"missing cv":    "first_name: Ada\nemail: ada@example.com\nresume_path: /nonexistent/cv.pdf\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadProfile(writeProfile(t, content))
			assert.ErrorIs(t, err, ErrProfileInvalid)
		})
	}
}

func TestLoadProfile_Unreadable(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadProfile(writeProfile(t, "first_name: [unterminated"))
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandHome("~/cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cv.pdf"), got)

	got, err = expandHome("/abs/cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/abs/cv.pdf", got)
}

func TestWriteExampleProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profile.yaml")
	require.NoError(t, WriteExampleProfile(path))
	assert.ErrorIs(t, WriteExampleProfile(path), ErrProfileExists)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var p entity.Profile
	require.NoError(t, yaml.Unmarshal(data, &p))
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, "1 month", p.Extra["notice_period"])
}
