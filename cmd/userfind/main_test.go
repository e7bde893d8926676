package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atinylittleshell/userfind/internal/userstore"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// run executes the CLI with an isolated config and log file.
func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	dir := t.TempDir()
	args = append([]string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--log-file", filepath.Join(dir, "userfind.log"),
	}, args...)

	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func directoryServer(t *testing.T, status int, body string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestBuildVersionVariable(t *testing.T) {
	assert.NotEmpty(t, BUILD_VERSION, "BUILD_VERSION should not be empty")
	assert.Equal(t, "dev", BUILD_VERSION, "Default BUILD_VERSION should be 'dev'")
}

func TestVersionFlag(t *testing.T) {
	tests := []struct {
		name         string
		buildVersion string
	}{
		{name: "default version", buildVersion: "dev"},
		{name: "custom version", buildVersion: "v0.3.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalVersion := BUILD_VERSION
			defer func() { BUILD_VERSION = originalVersion }()
			BUILD_VERSION = tt.buildVersion

			stdout, _, code := run(t, "--version")
			assert.Equal(t, 0, code)
			assert.Contains(t, stdout, tt.buildVersion)
		})
	}
}

func TestFlagDefinitions(t *testing.T) {
	rootCmd := newRootCmd(newApp())

	for _, name := range []string{"config", "log-file", "directory-url", "debounce", "timeout", "log-level"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "flag %s should be defined", name)
	}

	names := []string{}
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "lookup")
	assert.Contains(t, names, "serve")

	serveCmd, _, err := rootCmd.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serveCmd.PersistentFlags().Lookup("db"))
	for _, sub := range []string{"add", "rm"} {
		found, _, err := rootCmd.Find([]string{"serve", sub})
		require.NoError(t, err)
		assert.Equal(t, sub, found.Name())
	}
}

func TestLookupExitCodes(t *testing.T) {
	const bret = `[{"id":1,"name":"Leanne Graham","username":"Bret","email":"Sincere@april.biz"}]`

	tests := []struct {
		name         string
		status       int
		body         string
		query        string
		expectCode   int
		expectStdout string
		expectStderr string
	}{
		{
			name:         "found",
			status:       http.StatusOK,
			body:         bret,
			query:        " Bret ",
			expectCode:   0,
			expectStdout: "Leanne Graham\nBret\nSincere@april.biz\n",
		},
		{
			name:         "case mismatch is not found",
			status:       http.StatusOK,
			body:         bret,
			query:        "bret",
			expectCode:   2,
			expectStdout: "No user found\n",
		},
		{
			name:         "server error",
			status:       http.StatusInternalServerError,
			body:         "boom",
			query:        "Bret",
			expectCode:   1,
			expectStderr: "Error: HTTP error: status 500\n",
		},
		{
			name:         "malformed body",
			status:       http.StatusOK,
			body:         "null",
			query:        "Bret",
			expectCode:   1,
			expectStderr: "Error: malformed response from directory\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := directoryServer(t, tt.status, tt.body)
			stdout, stderr, code := run(t, "--directory-url", url, "lookup", tt.query)

			assert.Equal(t, tt.expectCode, code)
			assert.Equal(t, tt.expectStdout, stdout)
			assert.Equal(t, tt.expectStderr, stderr)
		})
	}
}

func TestLookupRejectsBlankUsername(t *testing.T) {
	_, stderr, code := run(t, "lookup", "   ")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "username must not be empty")
}

func TestConfigFileIsApplied(t *testing.T) {
	url := directoryServer(t, http.StatusOK, `[]`)
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("directory_url: "+url+"\nlog_level: warn\n"), 0600))

	var stdout, stderr bytes.Buffer
	code := execute([]string{
		"--config", configFile,
		"--log-file", filepath.Join(dir, "userfind.log"),
		"lookup", "Bret",
	}, &stdout, &stderr)

	assert.Equal(t, 2, code)
	assert.Equal(t, "No user found\n", stdout.String())
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("debounce: soon\n"), 0600))

	var stdout, stderr bytes.Buffer
	code := execute([]string{"--config", configFile, "--log-file", filepath.Join(dir, "log"), "lookup", "Bret"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(stderr.String(), "userfind: invalid config file"))
}

func TestFinderRequiresTerminal(t *testing.T) {
	dir := t.TempDir()
	a := newApp()
	a.isTerminal = func() bool { return false }

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs([]string{"--config", filepath.Join(dir, "config.yaml"), "--log-file", filepath.Join(dir, "log")})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})

	err := rootCmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, errNotTerminal)
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("debounce: 1s\nrequest_timeout: 3s\n"), 0600))

	a := newApp()
	rootCmd := newRootCmd(a)
	lookupCmd, _, err := rootCmd.Find([]string{"lookup"})
	require.NoError(t, err)
	lookupCmd.RunE = func(cmd *cobra.Command, args []string) error { return nil }

	rootCmd.SetArgs([]string{
		"--config", configFile,
		"--log-file", filepath.Join(dir, "log"),
		"--debounce", "50ms",
		"lookup", "x",
	})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	assert.Equal(t, "50ms", a.cfg.Debounce.String())
	assert.Equal(t, "3s", a.cfg.RequestTimeout.String())
}

func TestSeedStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)

	store, err := userstore.NewStore(filepath.Join(dir, "directory.db"))
	require.NoError(t, err)
	defer store.Close()

	// Empty store gets the built-in users
	require.NoError(t, seedStore(cmd, store, "", zaptest.NewLogger(t)))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)

	// An explicit seed file is always applied
	seed := filepath.Join(dir, "users.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("users:\n  - id: 11\n    name: Ada\n    username: ada\n    email: ada@x.com\n"), 0600))
	require.NoError(t, seedStore(cmd, store, seed, zaptest.NewLogger(t)))

	users, err := store.FindByUsername(ctx, "ada")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(11), users[0].ID)

	assert.Error(t, seedStore(cmd, store, filepath.Join(dir, "missing.yaml"), zaptest.NewLogger(t)))
}

func TestServeAddAndRemove(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "directory.db")

	stdout, stderr, code := run(t, "serve", "add", "--db", dbFile, "11", " ada ", "Ada Lovelace", "ada@x.com")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "added ada (id 11)\n", stdout)

	// Same id replaces the row
	_, stderr, code = run(t, "serve", "add", "--db", dbFile, "11", "ada", "Ada King", "ada@x.com")
	require.Equal(t, 0, code, stderr)

	store, err := userstore.NewStore(dbFile)
	require.NoError(t, err)
	users, err := store.FindByUsername(context.Background(), "ada")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ada King", users[0].Name)
	require.NoError(t, store.Close())

	stdout, stderr, code = run(t, "serve", "rm", "--db", dbFile, "11")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "removed user 11\n", stdout)

	_, stderr, code = run(t, "serve", "rm", "--db", dbFile, "11")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no user found with id 11")
}

func TestServeAddRejectsBadInput(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "directory.db")

	tests := []struct {
		name         string
		args         []string
		expectStderr string
	}{
		{name: "non-numeric id", args: []string{"add", "abc", "ada", "Ada", "ada@x.com"}, expectStderr: `invalid user id "abc"`},
		{name: "zero id", args: []string{"rm", "0"}, expectStderr: `invalid user id "0"`},
		{name: "blank username", args: []string{"add", "1", "  ", "Ada", "ada@x.com"}, expectStderr: "username must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(append([]string{"serve"}, tt.args...), "--db", dbFile)
			_, stderr, code := run(t, args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.expectStderr)
		})
	}
}

func TestDescribeDatabase(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "directory.db")

	assert.Equal(t, "1 user from "+dbFile, describeDatabase(dbFile, 1))

	require.NoError(t, os.WriteFile(dbFile, make([]byte, 2048), 0600))
	assert.Equal(t, "12,000 users from "+dbFile+" (2.0 kB)", describeDatabase(dbFile, 12000))
}
