package linter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
linters:
  - name: flake8
    executable: flake8
    command: "%e --stdin-display-name %s -"
    stream: stdout
    read: stdin
    patterns:
      include: ["*.py"]
    parse:
      pattern: '^[^:]+:(?P<line>\d+):(?P<col>\d+): (?P<code>\w+) (?P<text>.*)$'
    severity_map:
      es: ws
  - name: tsserver
    lsp: tsserver
    root_markers: ["package.json", "tsconfig.json"]
    patterns:
      include: ["*.ts", "*.tsx"]
  - name: two-pass
    executable: analyzer
    read: tempfile
    chain:
      - command: "%e --collect"
        stream: stderr
      - command: "%e --report %t"
    parse:
      pattern: '(?P<line>\d+): (?P<text>.*)'
`

func TestLoadFromBytes(t *testing.T) {
	linters, err := LoadFromBytes([]byte(sampleManifest))
	require.NoError(t, err)
	require.Len(t, linters, 3)

	flake := linters[0]
	assert.Equal(t, "flake8", flake.Name)
	assert.Equal(t, StreamStdout, flake.Stream)
	assert.Equal(t, ReadStdin, flake.Read)
	assert.Equal(t, LSPNone, flake.Kind)
	require.NotNil(t, flake.Command)
	cmd := flake.Command(Document{Path: "pkg/app.py"}, nil)
	assert.Equal(t, "%e --stdin-display-name pkg/app.py -", cmd)
	assert.Equal(t, "WS", flake.SeverityRemap["ES"])
	require.NotNil(t, flake.Files)
	assert.True(t, flake.AppliesTo("src/app.py"))
	assert.False(t, flake.AppliesTo("src/app.go"))

	ts := linters[1]
	assert.Equal(t, LSPTSServer, ts.Kind)
	assert.Nil(t, ts.Parse)
	assert.Equal(t, []string{"package.json", "tsconfig.json"}, ts.RootMarkers)

	chained := linters[2]
	require.Len(t, chained.Chain, 2)
	require.NotNil(t, chained.Chain[0].Stream)
	assert.Equal(t, StreamStderr, *chained.Chain[0].Stream)
	assert.Equal(t, ReadTempFile, chained.Read)
}

func TestLoadFromBytes_Validation(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{
			name:     "empty",
			manifest: "",
			wantErr:  "manifest is empty",
		},
		{
			name:     "no linters",
			manifest: "linters: []",
			wantErr:  "defines no linters",
		},
		{
			name: "missing name",
			manifest: `
linters:
  - executable: x
    command: "%e"
    parse: {pattern: '(?P<line>\d+)'}
`,
			wantErr: "name is required",
		},
		{
			name: "missing executable",
			manifest: `
linters:
  - name: l
    command: "%e"
    parse: {pattern: '(?P<line>\d+)'}
`,
			wantErr: "executable is required",
		},
		{
			name: "command and chain",
			manifest: `
linters:
  - name: l
    executable: x
    command: "%e"
    chain: [{command: "%e"}]
    parse: {pattern: '(?P<line>\d+)'}
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "tempfile placeholder without tempfile read",
			manifest: `
linters:
  - name: l
    executable: x
    command: "%e %t"
    read: stdin
    parse: {pattern: '(?P<line>\d+)'}
`,
			wantErr: "requires read: tempfile",
		},
		{
			name: "missing parser",
			manifest: `
linters:
  - name: l
    executable: x
    command: "%e"
`,
			wantErr: "parse.pattern is required",
		},
		{
			name: "lsp with command",
			manifest: `
linters:
  - name: l
    lsp: generic
    command: "oops"
`,
			wantErr: "cannot define commands",
		},
		{
			name: "duplicate names",
			manifest: `
linters:
  - name: l
    executable: x
    command: "%e"
    parse: {pattern: '(?P<line>\d+)'}
  - name: l
    executable: y
    command: "%e"
    parse: {pattern: '(?P<line>\d+)'}
`,
			wantErr: "duplicate name",
		},
		{
			name: "bad stream",
			manifest: `
linters:
  - name: l
    executable: x
    command: "%e"
    stream: sideways
    parse: {pattern: '(?P<line>\d+)'}
`,
			wantErr: "unknown stream policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.manifest))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
