package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInput = `type, client, tx, amount
deposit, 1, 1, 1.0
deposit, 2, 2, 2.0
deposit, 1, 3, 2.0
withdrawal, 1, 4, 1.5
withdrawal, 2, 5, 3.0
`

const sampleOutput = "client,available,held,total,locked\n" +
	"1,1.5000,0.0000,1.5000,false\n" +
	"2,2.0000,0.0000,2.0000,false\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runLedger(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"--config", "absent"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_SingleSourceToStdout(t *testing.T) {
	path := writeFile(t, t.TempDir(), "transactions.csv", sampleInput)

	code, stdout, stderr := runLedger(t, path)

	assert.Equal(t, exitOK, code, stderr)
	assert.Equal(t, sampleOutput, stdout)
	assert.Contains(t, stderr, "Source processed")
}

func TestRun_DisputeLifecycle(t *testing.T) {
	input := "type,client,tx,amount\n" +
		"deposit,1,1,10\n" +
		"deposit,1,2,5\n" +
		"dispute,1,1,\n" +
		"resolve,1,1,\n" +
		"dispute,1,2,\n" +
		"chargeback,1,2,\n" +
		"deposit,1,3,100\n"
	path := writeFile(t, t.TempDir(), "disputes.csv", input)

	code, stdout, _ := runLedger(t, path)

	assert.Equal(t, exitOK, code)
	assert.Equal(t, "client,available,held,total,locked\n1,10.0000,0.0000,10.0000,true\n", stdout)
}

func TestRun_UsageErrors(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", sampleInput)
	b := writeFile(t, dir, "b.csv", sampleInput)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no sources", args: nil},
		{name: "unknown flag", args: []string{"--frobnicate", a}},
		{name: "several sources without output dir", args: []string{a, b}},
		{name: "colliding basenames", args: []string{"--output-dir", t.TempDir(), a, filepath.Join(dir, ".", "a.csv")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := runLedger(t, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Empty(t, stdout)
		})
	}
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "transactions.csv", sampleInput)

	t.Run("missing source", func(t *testing.T) {
		code, stdout, _ := runLedger(t, filepath.Join(dir, "absent.csv"))
		assert.Equal(t, exitFailure, code)
		assert.Empty(t, stdout)
	})

	t.Run("invalid policy", func(t *testing.T) {
		code, _, stderr := runLedger(t, "--withdrawal-dispute-policy", "refund", path)
		assert.Equal(t, exitFailure, code)
		assert.Contains(t, stderr, "Failed to load configuration")
	})

	t.Run("unreadable source writes nothing", func(t *testing.T) {
		broken := writeFile(t, dir, "broken.csv", "type,client,tx,amount\ndeposit,1,1,1.0\n\xff\xfe,1,2,1.0\n")
		code, stdout, _ := runLedger(t, broken)
		assert.Equal(t, exitFailure, code)
		assert.Empty(t, stdout)
	})

	t.Run("help", func(t *testing.T) {
		code, _, stderr := runLedger(t, "--help")
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stderr, "Usage: ledger")
	})
}

func TestRun_BatchToOutputDir(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "reports")
	first := writeFile(t, dir, "first.csv", sampleInput)
	second := writeFile(t, dir, "second.csv", "type,client,tx,amount\ndeposit,7,1,0.0001\n")

	code, stdout, stderr := runLedger(t, "--output-dir", outDir, "--workers", "2", first, second)

	require.Equal(t, exitOK, code, stderr)
	assert.Empty(t, stdout)

	got, err := os.ReadFile(filepath.Join(outDir, "first.csv"))
	require.NoError(t, err)
	assert.Equal(t, sampleOutput, string(got))

	got, err = os.ReadFile(filepath.Join(outDir, "second.csv"))
	require.NoError(t, err)
	assert.Equal(t, "client,available,held,total,locked\n7,0.0001,0.0000,0.0001,false\n", string(got))
}

func TestRun_BatchReportsFailedSource(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	good := writeFile(t, dir, "good.csv", sampleInput)

	code, _, _ := runLedger(t, "--output-dir", outDir, good, filepath.Join(dir, "missing.csv"))

	assert.Equal(t, exitFailure, code)
	_, err := os.Stat(filepath.Join(outDir, "good.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "missing.csv"))
	assert.True(t, os.IsNotExist(err))
}
