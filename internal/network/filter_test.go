package network

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArkEcosystemArchive/ark-cli/internal/nodeapi"
)

func decodeRaws(t *testing.T, body string) []rawPeer {
	t.Helper()
	var raws []rawPeer
	require.NoError(t, json.Unmarshal([]byte(body), &raws))
	return raws
}

func TestCandidate_Rejections(t *testing.T) {
	raws := decodeRaws(t, `[
		{"ip":"10.0.0.1","port":4003,"height":100,"status":"OK"},
		{"ip":"10.0.0.2","port":4003,"height":100,"status":"ETIMEOUT"},
		{"ip":"127.0.0.1","port":4003,"height":100},
		{"ip":"","port":4003,"height":100},
		{"ip":"10.0.0.3","port":0,"height":100},
		{"ip":"10.0.0.4","port":4003,"height":"abc"},
		{"ip":"10.0.0.5","port":4003,"height":-1},
		{"ip":"10.0.0.6","port":4003},
		{"ip":"10.0.0.1","port":4003,"height":100}
	]`)

	res := filterCandidates(raws, 10)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "10.0.0.1:4003", res.Candidates[0].Addr())
	assert.Equal(t, map[string]int{
		rejectStatus:    1,
		rejectLocal:     1,
		rejectAddress:   2,
		rejectHeight:    3,
		rejectDuplicate: 1,
	}, res.Rejected)
}

func TestCandidate_LenientNumbers(t *testing.T) {
	raws := decodeRaws(t, `[{"ip":"10.0.0.1","port":"4003","height":"120","status":200,"delay":"35"}]`)
	c, reason := raws[0].candidate()
	require.Empty(t, reason)
	assert.Equal(t, 4003, c.Port)
	assert.Equal(t, uint64(120), c.Height)
	assert.Equal(t, 35*time.Millisecond, c.Latency)
}

func TestStatusOK(t *testing.T) {
	for _, s := range []string{``, `null`, `"OK"`, `"ok"`, `200`, `"200"`} {
		assert.True(t, statusOK(json.RawMessage(s)), "status %s", s)
	}
	for _, s := range []string{`"EUNAVAILABLE"`, `500`, `true`} {
		assert.False(t, statusOK(json.RawMessage(s)), "status %s", s)
	}
}

func TestReferenceHeight(t *testing.T) {
	cands := func(heights ...uint64) []Candidate {
		var out []Candidate
		for _, h := range heights {
			out = append(out, Candidate{Height: h})
		}
		return out
	}
	assert.Equal(t, uint64(100), referenceHeight(cands(100, 100, 90, 200)))
	// Ties go to the highest height.
	assert.Equal(t, uint64(200), referenceHeight(cands(100, 200, 100, 200, 5)))
	assert.Equal(t, uint64(7), referenceHeight(cands(7)))
}

func TestFilterCandidates_ToleranceIsInclusive(t *testing.T) {
	raws := decodeRaws(t, `[
		{"ip":"10.0.0.1","port":4003,"height":100},
		{"ip":"10.0.0.2","port":4003,"height":100},
		{"ip":"10.0.0.3","port":4003,"height":110},
		{"ip":"10.0.0.4","port":4003,"height":90},
		{"ip":"10.0.0.5","port":4003,"height":111},
		{"ip":"10.0.0.6","port":4003,"height":89}
	]`)
	res := filterCandidates(raws, 10)
	assert.Equal(t, uint64(100), res.Reference)
	assert.Len(t, res.Candidates, 4)
	assert.Equal(t, 2, res.Rejected[rejectDeviation])
}

func TestRankCandidates(t *testing.T) {
	cands := []Candidate{
		{Host: "10.0.0.1", Port: 4003, Version: "2.5.0", Height: 200, Latency: time.Millisecond},
		{Host: "10.0.0.2", Port: 4003, Version: "2.6.0", Height: 100, Latency: 50 * time.Millisecond},
		{Host: "10.0.0.3", Port: 4003, Version: "2.6.0", Height: 100, Latency: 10 * time.Millisecond},
		{Host: "10.0.0.4", Port: 4003, Version: "2.6.0", Height: 101, Latency: 90 * time.Millisecond},
		{Host: "10.0.0.5", Port: 4003, Version: "", Height: 300},
		{Host: "10.0.0.6", Port: 4003, Version: "2.10.0", Height: 1},
		{Host: "10.0.0.0", Port: 4003, Version: "2.6.0", Height: 100, Latency: 10 * time.Millisecond},
	}
	rankCandidates(cands)

	var got []string
	for _, c := range cands {
		got = append(got, c.Host)
	}
	assert.Equal(t, []string{"10.0.0.6", "10.0.0.4", "10.0.0.0", "10.0.0.3", "10.0.0.2", "10.0.0.1", "10.0.0.5"}, got)
}

func TestCompareVersions(t *testing.T) {
	assert.Positive(t, compareVersions("2.10.0", "2.9.9"))
	assert.Positive(t, compareVersions("v2.0.0", "1.0.0"))
	assert.Zero(t, compareVersions("2.6.0", "v2.6.0"))
	assert.Negative(t, compareVersions("garbage", "0.0.1"))
}

func TestDecodePeerList(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int
	}{
		{"array", `[{"ip":"10.0.0.1"},{"ip":"10.0.0.2"}]`, 2},
		{"legacy", `{"success":true,"peers":[{"ip":"10.0.0.1"}]}`, 1},
		{"wrapped data", `{"data":[{"ip":"10.0.0.1"}]}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raws, err := decodePeerList(&nodeapi.Result{Data: json.RawMessage(tt.data)})
			require.NoError(t, err)
			assert.Len(t, raws, tt.want)
		})
	}

	_, err := decodePeerList(&nodeapi.Result{})
	assert.ErrorIs(t, err, nodeapi.ErrMalformedResponse)
	_, err = decodePeerList(&nodeapi.Result{Data: json.RawMessage(`"nope"`)})
	assert.ErrorIs(t, err, nodeapi.ErrMalformedResponse)
}
