package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMatchesCSV = `ID,City,Date,Season,MatchNumber,Team1,Team2,Venue,TossWinner,TossDecision,SuperOver,WinningTeam,WonBy,Margin,method,Player_of_Match,Team1Players,Team2Players,Umpire1,Umpire2
1,Delhi,2011-05-21,2011,1,A,B,V,A,bat,N,A,Runs,5,NA,a1,"['a1']","['b1']",U1,U2
bad,Delhi,2011-05-22,2011,2,A,B,V,A,bat,N,A,Runs,1,NA,NA,,,,
`

const testCricsheet = `{
  "info": {
    "dates": ["2020-09-19"],
    "teams": ["Mumbai Indians", "Chennai Super Kings"],
    "venue": "Sheikh Zayed Stadium",
    "outcome": {"winner": "Chennai Super Kings", "by": {"wickets": 5}},
    "players": {"Mumbai Indians": ["RG Sharma"], "Chennai Super Kings": ["DL Chahar"]}
  },
  "innings": [{
    "team": "Mumbai Indians",
    "overs": [{"over": 0, "deliveries": [
      {"batter": "RG Sharma", "bowler": "DL Chahar", "non_striker": "Q de Kock", "runs": {"batter": 4, "extras": 0, "total": 4}}
    ]}]
  }]
}`

// withInputs sets the input flags for one test.
func withInputs(t *testing.T, matches, deliveries string, cricsheet []string) {
	t.Helper()
	oldM, oldD, oldC := matchesPath, deliveriesPath, cricsheetPaths
	matchesPath, deliveriesPath, cricsheetPaths = matches, deliveries, cricsheet
	t.Cleanup(func() { matchesPath, deliveriesPath, cricsheetPaths = oldM, oldD, oldC })
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestReadInputsRequiresAFile(t *testing.T) {
	withInputs(t, "", "", nil)
	_, err := readInputs(context.Background())
	assert.ErrorContains(t, err, "nothing to read")
}

func TestReadInputsCountsRejectedRows(t *testing.T) {
	dir := t.TempDir()
	withInputs(t, writeFile(t, dir, "matches.csv", testMatchesCSV), "", nil)

	in, err := readInputs(context.Background())
	require.NoError(t, err)
	require.Len(t, in.matches, 1)
	assert.Equal(t, int64(1), in.matches[0].ID)
	assert.Equal(t, 1, in.rejected)
}

func TestReadInputsCricsheetDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "1216492.json", testCricsheet)
	writeFile(t, dir, "notes.txt", "not a match")
	writeFile(t, dir, "broken.json", testCricsheet)
	withInputs(t, "", "", []string{dir})

	in, err := readInputs(context.Background())
	require.NoError(t, err)
	require.Len(t, in.matches, 1)
	assert.Equal(t, int64(1216492), in.matches[0].ID)
	assert.Equal(t, 2020, in.matches[0].Season)
	require.Len(t, in.deliveries, 1)
	assert.Equal(t, 4, in.deliveries[0].BatsmanRun)
	assert.Equal(t, 1, in.rejected, "a file name without a match id is rejected")
}

func TestReadInputsMissingFile(t *testing.T) {
	withInputs(t, filepath.Join(t.TempDir(), "nope.csv"), "", nil)
	_, err := readInputs(context.Background())
	assert.Error(t, err)
}

func TestIsCricsheetFile(t *testing.T) {
	for name, want := range map[string]bool{
		"1.json":     true,
		"1.json.gz":  true,
		"1.json.zst": true,
		"1.json.bz2": true,
		"1.csv":      false,
		"README.txt": false,
	} {
		assert.Equal(t, want, isCricsheetFile(name), name)
	}
}
