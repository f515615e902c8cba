package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), "command %v", args)
	return out.String()
}

func TestCreateDescribeSetGet(t *testing.T) {
	url := "mem://cli-test/" + t.Name()

	runCommand(t, "create", url, "--shape", "4,6", "--chunks", "2,3", "--dtype", "float64")

	var meta struct {
		Shape      []int  `json:"shape"`
		ChunkShape []int  `json:"chunk_shape"`
		DType      string `json:"dtype"`
		Chunks     int    `json:"chunks"`
	}
	require.NoError(t, json.Unmarshal([]byte(runCommand(t, "describe", url)), &meta))
	assert.Equal(t, []int{4, 6}, meta.Shape)
	assert.Equal(t, []int{2, 3}, meta.ChunkShape)
	assert.Equal(t, "float64", meta.DType)
	assert.Equal(t, 4, meta.Chunks)

	runCommand(t, "set", url, "0,:", "1", "2", "3", "4", "5", "6")

	var got sliceResult
	require.NoError(t, json.Unmarshal([]byte(runCommand(t, "get", url, "0,:")), &got))
	assert.Equal(t, []int{1, 6}, got.Shape)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, got.Values)

	// Unwritten chunks read as zeros.
	require.NoError(t, json.Unmarshal([]byte(runCommand(t, "get", url, "3,0:2")), &got))
	assert.Equal(t, []float64{0, 0}, got.Values)
}

func TestSetRejectsWrongValueCount(t *testing.T) {
	url := "mem://cli-test/" + t.Name()
	runCommand(t, "create", url, "--shape", "2,2", "--chunks", "2,2")

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"set", url, "0,:", "1", "2", "3"})
	assert.Error(t, cmd.Execute())
}

func TestGetMissingArray(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"describe", "mem://cli-test/" + t.Name()})
	assert.Error(t, cmd.Execute())
}
