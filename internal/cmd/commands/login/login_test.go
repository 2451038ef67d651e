package login_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jira-flow-nodes/internal/cmd/base"
	"github.com/nhle/jira-flow-nodes/internal/cmd/commands/login"
	"github.com/nhle/jira-flow-nodes/internal/model"
)

func TestLogin_StoresSecretUnderServerKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, model.SaveConfig(configPath, &model.AppConfig{
		LogLevel: "info",
		Servers: []model.ServerConfig{
			{ID: "prod", BaseURL: "https://jira.example.com/rest/api/2/", Username: "bot"},
		},
	}))

	ui := cli.NewMockUi()
	ui.InputReader = strings.NewReader("tok3n\n")

	stored := map[string]string{}
	c := &login.Command{
		Command: &base.Command{Log: hclog.NewNullLogger(), UI: ui},
		SetSecret: func(key, value string) error {
			stored[key] = value
			return nil
		},
	}

	code := c.Run([]string{"-config", configPath, "-server", "prod"})
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Equal(t, map[string]string{"jira-prod": "tok3n"}, stored)
}

func TestLogin_UnknownServer(t *testing.T) {
	ui := cli.NewMockUi()
	c := &login.Command{Command: &base.Command{Log: hclog.NewNullLogger(), UI: ui}}

	code := c.Run([]string{"-config", filepath.Join(t.TempDir(), "none.yaml"), "-server", "prod"})
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), `unknown server "prod"`)
}
