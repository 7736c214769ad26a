package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"libcirc/internal/handler/cli"
	"libcirc/internal/infra/memstore"
	"libcirc/internal/infra/policy"
	"libcirc/internal/pkg/clock"
	"libcirc/internal/pkg/config"
	"libcirc/internal/usecase/commands"
	"libcirc/internal/usecase/queries"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CLITestSuite struct {
	suite.Suite
	root *cobra.Command
}

func (s *CLITestSuite) SetupTest() {
	cfg := config.NewTestConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := commands.NewLendingEngine(
		context.Background(),
		memstore.New(),
		policy.NewFixedTermPolicy(cfg.Lending),
		clock.NewRealClock(),
		logger,
	)
	s.Require().NoError(err)
	s.root = cli.NewRootCommand(engine, queries.NewLendingQueries(engine))
}

func (s *CLITestSuite) run(args ...string) (string, error) {
	var out bytes.Buffer
	s.root.SetOut(&out)
	s.root.SetErr(&out)
	s.root.SetArgs(args)
	err := s.root.Execute()
	return out.String(), err
}

func (s *CLITestSuite) mustRun(args ...string) string {
	out, err := s.run(args...)
	s.Require().NoError(err, out)
	return out
}

func (s *CLITestSuite) TestCirculationFlow() {
	s.mustRun("register", "alice")
	s.mustRun("add-resource", "R1", "Dune", "Frank Herbert")
	s.mustRun("add-copy", "R1")

	out := s.mustRun("issue", "alice", "R1", "1")
	s.Contains(out, "issued R1#1 to alice")

	out = s.mustRun("account", "alice")
	var view queries.AccountView
	require.NoError(s.T(), json.Unmarshal([]byte(out), &view))
	s.Equal([]string{"R1#1"}, view.Borrowed)

	s.mustRun("return", "R1", "1")
	out = s.mustRun("catalog", "R1")
	var resourceView queries.ResourceView
	require.NoError(s.T(), json.Unmarshal([]byte(out), &resourceView))
	s.Require().Len(resourceView.Copies, 1)
	s.Equal("available", resourceView.Copies[0].Status)
}

func (s *CLITestSuite) TestBillingFlow() {
	s.mustRun("register", "alice")
	s.mustRun("add-resource", "R1", "Dune", "Frank Herbert")
	s.mustRun("add-copy", "R1")
	s.mustRun("fine", "alice", "R1", "1", "250", "10")
	s.mustRun("pay", "alice", "100")

	out := s.mustRun("account", "alice")
	var view queries.AccountView
	require.NoError(s.T(), json.Unmarshal([]byte(out), &view))
	s.Equal(int64(-150), view.BalanceCents)

	out = s.mustRun("entries", "alice")
	var entries []queries.EntryView
	require.NoError(s.T(), json.Unmarshal([]byte(out), &entries))
	s.Len(entries, 2)
}

func (s *CLITestSuite) TestErrorsSurfaceToCaller() {
	s.mustRun("register", "alice")
	_, err := s.run("issue", "alice", "R1", "1")
	s.Require().Error(err)
	s.Require().ErrorIs(err, commands.ErrResourceNotFound)
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}
