package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadCSV(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		wantRows int
		wantErr  string
	}{
		{
			name:     "metadata rows",
			csv:      "file_name,text,speaker_id,is_common\na.m4a,Merhaba dünya,s1,1\nb.m4a,\"Bir, iki\",s2,0\n",
			wantRows: 2,
		},
		{
			name:     "header only",
			csv:      "file_name,text\n",
			wantRows: 0,
		},
		{
			name:    "empty file",
			csv:     "",
			wantErr: "no header row",
		},
		{
			name:    "mismatched column count",
			csv:     "text,speaker_id\nok,s1\nbad\n",
			wantErr: "row 3 has 1 columns, expected 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, t.TempDir(), "test.csv", tt.csv)

			table, err := LoadCSV(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, table.Rows, tt.wantRows)
		})
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata", "out.csv")
	table := &Table{
		Header: []string{"file_name", "text"},
		Rows: []Row{
			{"file_name": "a.wav", "text": "Merhaba, dünya"},
			{"file_name": "b.wav"},
		},
	}
	table.AddColumn("whisper_pred")
	table.AddColumn("text")
	table.Rows[0]["whisper_pred"] = "merhaba dünya"

	require.NoError(t, WriteCSV(path, table))

	got, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"file_name", "text", "whisper_pred"}, got.Header)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "Merhaba, dünya", got.Rows[0]["text"])
	assert.Equal(t, "merhaba dünya", got.Rows[0]["whisper_pred"])
	assert.Equal(t, "", got.Rows[1]["whisper_pred"])
}
