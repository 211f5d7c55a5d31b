package fixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/employee-demo/employee-contract-tests/data"
)

func TestRunToken(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	token := NewRunToken(now)
	assert.Equal(t, "1709294400123", token.String())
	assert.Equal(t, `"1709294400123"`, token.Vars()[data.TimestampVar].JSONString())
	assert.NotEmpty(t, token.RunID())
	assert.NotEqual(t, token.RunID(), NewRunToken(now).RunID())
}

func TestRunTokenMakesPayloadEmailsUniqueAndDistinct(t *testing.T) {
	token := NewRunToken(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	laterToken := NewRunToken(time.Date(2024, 3, 1, 12, 0, 1, 0, time.UTC))

	emails := make(map[string]string)
	for _, name := range []string{"fixture-employee", "create-employee", "update-employee", "delete-employee"} {
		params, err := data.LoadEmployeeParams(name, token.Vars())
		require.NoError(t, err)
		email, ok := params.Email.Get()
		require.True(t, ok, name)
		assert.Contains(t, email, token.String(), name)
		assert.NotContains(t, emails, email, "%s repeats the email of %s", name, emails[email])
		emails[email] = name

		later, err := data.LoadEmployeeParams(name, laterToken.Vars())
		require.NoError(t, err)
		assert.NotEqual(t, email, later.Email.Value(), name)
	}
}
