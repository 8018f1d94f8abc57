package main

import (
	"bytes"
	"context"
	"flag"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eldritchtools/datapurge/internal/cdn"
	"github.com/eldritchtools/datapurge/internal/changes"
	"github.com/eldritchtools/datapurge/internal/pipeline"
	"github.com/eldritchtools/datapurge/internal/purge"
)

type fakeDiff struct {
	paths []string
}

func (f *fakeDiff) ChangedFiles(ctx context.Context, before, after string) ([]string, error) {
	return f.paths, nil
}

type fakePurger struct {
	status int
	calls  int
}

func (f *fakePurger) Purge(ctx context.Context, payload *purge.Payload) cdn.Outcome {
	f.calls++
	return cdn.Outcome{
		Success:    f.status == http.StatusOK,
		StatusCode: f.status,
		Body:       `{"error":"invalid token"}`,
		Files:      len(payload.Paths),
		Origins:    len(payload.Origins),
	}
}

func newTestPipeline(domain string, purger cdn.Purger) (*pipeline.Pipeline, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &pipeline.Pipeline{
		Resolver: changes.NewResolver(&fakeDiff{paths: []string{"data/a.json"}}, zap.NewNop()),
		Purger:   purger,
		Domain:   domain,
		Origins:  []string{"https://limbus-teams.eldritchtools.com", "http://localhost:3000"},
		Logger:   zap.NewNop(),
		Out:      &out,
		ErrOut:   &errOut,
	}, &out, &errOut
}

func TestExecute_ExitCodes(t *testing.T) {
	tests := []struct {
		name          string
		domain        string
		status        int
		ignoreFailure bool
		wantCode      int
		wantCalls     int
	}{
		{"success", "https://data.example.com", http.StatusOK, false, 0, 1},
		{"failure", "https://data.example.com", http.StatusForbidden, false, 1, 1},
		{"failure ignored", "https://data.example.com", http.StatusForbidden, true, 0, 1},
		{"success with ignore set", "https://data.example.com", http.StatusOK, true, 0, 1},
		{"invalid domain", "data.example.com", http.StatusOK, false, 1, 0},
		{"invalid domain ignores ignore-failure", "data.example.com", http.StatusOK, true, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			purger := &fakePurger{status: tt.status}
			p, _, _ := newTestPipeline(tt.domain, purger)

			code := execute(context.Background(), p, runOptions{
				Before:        "abc123",
				After:         "def456",
				IgnoreFailure: tt.ignoreFailure,
			})

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantCalls, purger.calls)
		})
	}
}

func TestExecute_ValidationErrorsReported(t *testing.T) {
	p, _, errOut := newTestPipeline("data.example.com", &fakePurger{status: http.StatusOK})

	code := execute(context.Background(), p, runOptions{Before: "abc123", After: "def456"})

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "Validation errors:")
	assert.Contains(t, errOut.String(), "data.example.com/meta.json")
}

func TestExecute_FailureReported(t *testing.T) {
	p, _, errOut := newTestPipeline("https://data.example.com", &fakePurger{status: http.StatusForbidden})

	code := execute(context.Background(), p, runOptions{})

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "Failed to purge cache.")
	assert.Contains(t, errOut.String(), `403 {"error":"invalid token"}`)
}

func TestExecute_DryRunDoesNotSend(t *testing.T) {
	purger := &fakePurger{status: http.StatusForbidden}
	p, out, _ := newTestPipeline("https://data.example.com", purger)

	code := execute(context.Background(), p, runOptions{Before: "abc123", After: "def456", DryRun: true})

	assert.Equal(t, 0, code)
	assert.Equal(t, 0, purger.calls)
	assert.Contains(t, out.String(), "=== Request body ===")
	assert.Contains(t, out.String(), `"url":"https://data.example.com/data/a.json"`)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(cdn.Outcome{Success: true}, false))
	assert.Equal(t, 0, exitCode(cdn.Outcome{Success: true}, true))
	assert.Equal(t, 1, exitCode(cdn.Outcome{StatusCode: 500}, false))
	assert.Equal(t, 0, exitCode(cdn.Outcome{StatusCode: 500}, true))
}

func TestSplitOrigins(t *testing.T) {
	got := splitOrigins(" https://a.example.com, https://b.example.com ,,http://localhost:3000 ")
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com", "http://localhost:3000"}, got)
	assert.Empty(t, splitOrigins(" , "))
}

func TestFlagSet(t *testing.T) {
	tests := []struct {
		args    []string
		wantSet bool
		wantVal bool
	}{
		{nil, false, false},
		{[]string{"--ignore-failure"}, true, true},
		{[]string{"--ignore-failure=false"}, true, false},
		{[]string{"--dry-run"}, false, false},
	}
	for _, tt := range tests {
		fs := flag.NewFlagSet("purge", flag.ContinueOnError)
		ignore := fs.Bool("ignore-failure", false, "")
		fs.Bool("dry-run", false, "")
		require.NoError(t, fs.Parse(tt.args))

		assert.Equal(t, tt.wantSet, flagSet(fs, "ignore-failure"), "args %v", tt.args)
		assert.Equal(t, tt.wantVal, *ignore, "args %v", tt.args)
	}
}
