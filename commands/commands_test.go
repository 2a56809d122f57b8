package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	meta := filepath.Join(dir, "Dataset", "metadata")
	require.NoError(t, os.MkdirAll(meta, 0o755))

	csv := "text,speaker_id,is_common,whisper_pred\n" +
		"merhaba dünya,1,1,Merhaba dünya!\n" +
		"bugün hava güzel,1,0,bugün hava güzel\n" +
		"iyi akşamlar,2,1,iyi akşam\n" +
		"nasılsın,2,0,nasılsın\n"
	require.NoError(t, os.WriteFile(filepath.Join(meta, "whisper_predictions.csv"), []byte(csv), 0o644))

	conf := "pipeline:\n  log_level: error\n" +
		"paths:\n" +
		"  data: " + filepath.Join(dir, "Dataset") + "\n" +
		"  outputs: " + filepath.Join(dir, "outputs") + "\n" +
		"store:\n  enabled: true\n  path: " + filepath.Join(dir, "runs.db") + "\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(conf), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEvaluateAndHistory(t *testing.T) {
	conf := writeFixture(t)

	out, err := run(t, "--config", conf, "evaluate", "--backend", "whisper")
	require.NoError(t, err)
	assert.Contains(t, out, "=== WHISPER EVALUATION RESULTS (Normalized) ===")
	assert.Contains(t, out, "Speaker 1 : 0.0000")
	assert.Contains(t, out, "-- Common vs personal WER --")

	out, err = run(t, "--config", conf, "history", "--backend", "whisper")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"RUN", "BACKEND", "CREATED", "UTTERANCES", "WER", "CER"}, strings.Fields(lines[0]))

	// CREATED holds a date and a time, so the row splits into seven fields.
	row := strings.Fields(lines[1])
	require.Len(t, row, 7)
	assert.Equal(t, "whisper", row[1])
	assert.Equal(t, []string{"4", "0.1250", "0.0625"}, row[4:])
}

func TestEvaluateFlags(t *testing.T) {
	conf := writeFixture(t)
	whisperCSV := filepath.Join(filepath.Dir(conf), "Dataset", "metadata", "whisper_predictions.csv")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing backend", []string{"evaluate"}, `required flag(s) "backend" not set`},
		{"unknown dimension", []string{"evaluate", "-b", "whisper", "--dimensions", "gender"}, `unknown dimension "gender"`},
		{"bad format", []string{"evaluate", "-b", "whisper", "--format", "xml"}, `unsupported format "xml"`},
		{"missing prediction column", []string{"evaluate", "-b", "wav2vec2", "-i", whisperCSV}, `missing required column "wav2vec2_pred"`},
		{"missing predictions file", []string{"evaluate", "-b", "wav2vec2"}, "wav2vec2_predictions.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"--config", conf}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEvaluateYAMLOverallOnly(t *testing.T) {
	conf := writeFixture(t)

	out, err := run(t, "--config", conf, "evaluate", "-b", "whisper", "-f", "yaml", "--dimensions", "overall")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: whisper")
	assert.Contains(t, out, "dimension: overall")
	assert.NotContains(t, out, "dimension: speaker")
}

func TestConfigShow(t *testing.T) {
	conf := writeFixture(t)

	out, err := run(t, "--config", conf, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "sample_rate: 16000")
	assert.Contains(t, out, "whisper:")
	assert.Contains(t, out, "log_level: error")
}

func TestBadLogLevel(t *testing.T) {
	conf := writeFixture(t)

	_, err := run(t, "--config", conf, "--log-level", "loud", "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}
