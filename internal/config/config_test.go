package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lorasim/lorasim/internal/region"
)

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsLeastBusyUnderUS915(t *testing.T) {
	c := Default()
	c.Policy = LB
	c.FPlan = region.US915
	assert.Error(t, c.Validate())
}

func TestValidateRejectsOutOfRangeConfirmedPerc(t *testing.T) {
	c := Default()
	c.ConfirmedPerc = 1.5
	assert.Error(t, c.Validate())
}

func TestLoadOverlaysYAMLOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("policy: FCFS\nmax_retr: 2\n"), 0o644))

	c, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, FCFS, c.Policy)
	assert.Equal(t, 2, c.MaxRetr)
	assert.Equal(t, Default().ADROn, c.ADROn, "fields absent from the file keep their default")
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	c, err := Load("")
	assert.NoError(t, err)
	assert.Equal(t, Default(), c)
}
