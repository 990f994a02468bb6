package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/pms"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "pmsctl dev\n", out)
}

func TestWebhookSign(t *testing.T) {
	payload := `{"ReservationId":"res-1"}`

	t.Run("from stdin", func(t *testing.T) {
		out, err := execute(t, payload, "webhook", "sign", "--secret", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, pms.SignWebhook([]byte(payload), "s3cret")+"\n", out)
	})

	t.Run("from file as JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "payload.json")
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

		out, err := execute(t, "", "webhook", "sign", "--secret", "s3cret", "-f", path, "--json")
		require.NoError(t, err)
		var got map[string]string
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, pms.SignatureHeader, got["header"])
		assert.Equal(t, pms.SignWebhook([]byte(payload), "s3cret"), got["signature"])
	})

	t.Run("secret is required", func(t *testing.T) {
		_, err := execute(t, payload, "webhook", "sign")
		assert.ErrorContains(t, err, "secret")
	})
}

func TestWebhookVerify(t *testing.T) {
	payload := "<Reservation/>"
	sig := "sha256=" + pms.SignWebhook([]byte(payload), "k")

	out, err := execute(t, payload, "webhook", "verify", "--secret", "k", "--signature", sig)
	require.NoError(t, err)
	assert.Equal(t, "signature valid\n", out)

	_, err = execute(t, payload+" ", "webhook", "verify", "--secret", "k", "--signature", sig)
	assert.ErrorIs(t, err, errSignatureMismatch)
}

func TestMigrateList_Embedded(t *testing.T) {
	out, err := execute(t, "", "migrate", "list")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"20260301090000_create_pms_bookings",
		"20260301090100_create_pms_rooms",
		"20260301090200_create_pms_guests",
	}, strings.Fields(out))
}

func TestMigrateCreate(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "", "migrate", "create", "add loyalty index", "--path", dir, "-d", "guest lookups")
	require.NoError(t, err)

	files := strings.Fields(out)
	require.Len(t, files, 2)
	assert.True(t, strings.HasSuffix(files[0], "_add_loyalty_index.up.sql"), files[0])
	assert.True(t, strings.HasSuffix(files[1], "_add_loyalty_index.down.sql"), files[1])

	up, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- guest lookups")

	out, err = execute(t, "", "migrate", "list", "--path", dir)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 1)
}

func TestArgumentValidation(t *testing.T) {
	hotel := "5f1e3c2a-8a44-4a57-9c59-3f7f2b4d1c11"

	_, err := execute(t, "", "sync", "not-a-uuid", "mews", "bookings")
	assert.ErrorIs(t, err, integration.ErrInvalidHotelID)

	_, err = execute(t, "", "sync", hotel, "fidelio", "bookings")
	assert.ErrorIs(t, err, integration.ErrInvalidProvider)

	_, err = execute(t, "", "sync", hotel, "mews", "invoices")
	assert.ErrorIs(t, err, integration.ErrInvalidEntityType)

	_, err = execute(t, "", "test-connection", hotel)
	assert.Error(t, err)

	_, err = execute(t, "", "migrate", "steps", "0")
	assert.ErrorContains(t, err, "invalid step count")
}
