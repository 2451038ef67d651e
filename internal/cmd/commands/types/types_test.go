package types_test

import (
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/jira-flow-nodes/internal/cmd/base"
	"github.com/nhle/jira-flow-nodes/internal/cmd/commands/types"
)

func TestTypes_ListsBuiltins(t *testing.T) {
	ui := cli.NewMockUi()
	c := &types.Command{Command: &base.Command{Log: hclog.NewNullLogger(), UI: ui}}

	assert.Equal(t, 0, c.Run(nil))
	assert.Equal(t, []string{
		"jira-issue-comment-add",
		"jira-issue-comment-update",
		"jira-issue-create",
		"jira-issue-get",
		"jira-issue-update",
		"jira-search",
	}, strings.Fields(ui.OutputWriter.String()))
}
