package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sunday = time.Date(2026, time.October, 18, 15, 30, 0, 0, time.UTC)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("POSTGRES_DSN", "")

	cmd := newRootCmdWith(&rootOptions{now: func() time.Time { return sunday }})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTypesCmd(t *testing.T) {
	out, err := run(t, "types")
	require.NoError(t, err)
	assert.Equal(t, 8, strings.Count(out, "\n"))
	assert.Contains(t, out, "Mortgage Discussion")
}

func TestBranchesCmd(t *testing.T) {
	out, err := run(t, "branches", "64105")
	require.NoError(t, err)
	assert.Contains(t, out, "Downtown Financial Center")

	_, err = run(t, "branches", "641")
	assert.Error(t, err)
}

func TestSlotsCmd(t *testing.T) {
	out, err := run(t, "--seed", "7", "slots")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "2026-10-19  Mon, Oct 19\n"))
	assert.Equal(t, 10, strings.Count(out, "\n"))

	out, err = run(t, "--seed", "7", "slots", "2026-10-20")
	require.NoError(t, err)
	assert.Contains(t, out, "Tuesday, October 20, 2026")
	assert.Contains(t, out, "4:00 PM")

	_, err = run(t, "slots", "2026-10-24")
	assert.Error(t, err, "saturday is not bookable")
}

func TestBookCmd(t *testing.T) {
	out, err := run(t, "--seed", "7", "book",
		"--type", "Loan Consultation",
		"--postal", "64105",
		"--branch", "2",
		"--name", "Jane Doe",
		"--email", "jane@x.com",
		"--phone", "555-123-4567",
	)
	require.NoError(t, err)
	assert.Regexp(t, `Confirmation Number: BNK-[0-9A-Z]{7}`, out)
	assert.Contains(t, out, "Appointment Type: Loan Consultation")
	assert.Contains(t, out, "Phone: (555) 123-4567")
}

func TestBookCmdRejectsInvalidInput(t *testing.T) {
	_, err := run(t, "book", "--postal", "64105", "--name", "Jane", "--email", "not-an-email", "--phone", "5551234567")
	assert.ErrorContains(t, err, "contact")

	_, err = run(t, "book", "--type", "Crypto", "--postal", "64105", "--name", "Jane", "--email", "j@x.com", "--phone", "5551234567")
	assert.ErrorContains(t, err, "invalid --type")

	_, err = run(t, "book", "--postal", "64105", "--branch", "99", "--name", "Jane", "--email", "j@x.com", "--phone", "5551234567")
	assert.ErrorContains(t, err, "does not serve")

	_, err = run(t, "book", "--postal", "64105", "--time", "10:00 AM", "--name", "Jane", "--email", "j@x.com", "--phone", "5551234567")
	assert.ErrorContains(t, err, "--time needs --date")
}
