package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flarewatch/pkg/errors"
)

func TestCleanPath(t *testing.T) {
	abs, err := CleanPath("data/./production.csv")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))
	assert.Equal(t, "production.csv", filepath.Base(abs))

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	expanded, err := CleanPath("~/reports/out.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "reports", "out.csv"), expanded)

	_, err = CleanPath("../outside.csv")
	assert.Equal(t, errors.ErrCodeFilePermission, errors.GetErrorCode(err))

	_, err = CleanPath("")
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetErrorCode(err))
}

func TestValidatePath(t *testing.T) {
	base := t.TempDir()

	inside, err := ValidatePath(filepath.Join(base, "a", "b.cred"), base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "a", "b.cred"), inside)

	_, err = ValidatePath(filepath.Join(base+"-other", "x"), base)
	assert.Equal(t, errors.ErrCodeFilePermission, errors.GetErrorCode(err))
}
