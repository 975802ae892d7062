package fetch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const volumesPage = `<html><body>
<table id="other"><tr><th>Ignore</th></tr><tr><td>me</td></tr></table>
<table id="largeTableOutput">
  <tr><th>File No</th><th>API No</th><th>Pool</th><th>Date</th><th>MCF
      Flared</th></tr>
  <tr><td> 100 </td><td>33-053-00000</td><td>BAKKEN</td><td>01-2020</td><td>1,250</td></tr>
  <tr></tr>
  <tr><td>200</td><td>33-053-00001</td><td>THREE FORKS</td><td>01-2020</td><td>0</td></tr>
</table>
</body></html>`

func TestParseVolumesTable(t *testing.T) {
	table, err := ParseVolumesTable(strings.NewReader(volumesPage), VolumesTableID, "2020-01")
	require.NoError(t, err)
	require.NotNil(t, table)

	assert.Equal(t, []string{"File No", "API No", "Pool", "Date", "MCF Flared"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"100", "33-053-00000", "BAKKEN", "01-2020", "1,250"}, table.Rows[0])
	assert.Equal(t, "THREE FORKS", table.Rows[1][2])
}

func TestParseVolumesTableMissing(t *testing.T) {
	table, err := ParseVolumesTable(strings.NewReader("<html><body><p>No data</p></body></html>"), VolumesTableID, "2020-01")
	require.NoError(t, err)
	assert.Nil(t, table)
}

func TestParseVolumesTableRaggedRow(t *testing.T) {
	page := `<table id="largeTableOutput"><tr><th>A</th><th>B</th></tr><tr><td>1</td></tr></table>`
	_, err := ParseVolumesTable(strings.NewReader(page), VolumesTableID, "2020-01")
	assert.Error(t, err)
}
