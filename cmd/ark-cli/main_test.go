package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArkEcosystemArchive/ark-cli/config"
	"github.com/ArkEcosystemArchive/ark-cli/pkg/crypto"
	"github.com/ArkEcosystemArchive/ark-cli/pkg/tx"
)

const (
	testPassphrase = "this is a top secret passphrase"
	testAddress    = "D61mfSggzbvQgTUe6JhYKH2doHaqJ3Dyib"
	testPublicKey  = "034151a3ec46b5670a682b0a63394f863587d1bc97483b1b6c70eb58e7f0aed192"
)

func init() {
	color.NoColor = true
}

// runCLI runs one command line against a fresh data directory.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--datadir", t.TempDir(), "--no-cache", "--log-level", "off"}, args...)
	code := run(full, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestRun_Version(t *testing.T) {
	out, _, code := runCLI(t, "", "--version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "ark-cli dev\n", out)
}

func TestRun_NoCommand(t *testing.T) {
	_, errOut, code := runCLI(t, "")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Usage:")
}

func TestRun_UnknownCommand(t *testing.T) {
	_, errOut, code := runCLI(t, "", "bogus")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `Error: invalid usage: unknown command "bogus"`)
}

func TestRun_InvalidNetwork(t *testing.T) {
	_, errOut, code := runCLI(t, "", "--network", "nope", "wallet", "create")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(errOut, "Error: "))
}

func TestWalletAddress(t *testing.T) {
	out, errOut, code := runCLI(t, testPassphrase+"\n", "--network", "devnet", "wallet", "address")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, testAddress)
	assert.Contains(t, out, testPublicKey)
}

func TestWalletAddress_EmptyPassphrase(t *testing.T) {
	_, errOut, code := runCLI(t, "\n", "wallet", "address")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "empty passphrase")
}

func TestWalletCreate_JSON(t *testing.T) {
	out, errOut, code := runCLI(t, "", "--format", "json", "wallet", "create")
	require.Equal(t, 0, code, errOut)

	var created struct {
		Passphrase string `json:"passphrase"`
		Address    string `json:"address"`
		PublicKey  string `json:"publicKey"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Len(t, strings.Fields(created.Passphrase), 12)

	want, err := crypto.AddressFromPassphrase(created.Passphrase, 0x17)
	require.NoError(t, err)
	assert.Equal(t, want, created.Address)
}

func TestMessage_SignVerify(t *testing.T) {
	out, errOut, code := runCLI(t, testPassphrase+"\n", "--format", "json", "message", "sign", "Hello World")
	require.Equal(t, 0, code, errOut)

	var signed crypto.SignedMessage
	require.NoError(t, json.Unmarshal([]byte(out), &signed))
	assert.Equal(t, testPublicKey, signed.PublicKey)

	out, errOut, code = runCLI(t, "", "message", "verify", "Hello World", signed.Signature, signed.PublicKey)
	assert.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Signature is valid")

	_, errOut, code = runCLI(t, "", "message", "verify", "Hello World!", signed.Signature, signed.PublicKey)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "signature does not match")
}

func TestMessage_VerifyUsage(t *testing.T) {
	_, errOut, code := runCLI(t, "", "message", "verify", "only one")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "message verify <message> <signature> <publicKey>")
}

func TestTransactionStatus_BadID(t *testing.T) {
	_, errOut, code := runCLI(t, "", "transaction", "status", "xyz")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "is not a transaction id")
}

// fakeNode is a devnet node serving the endpoints the CLI reads.
type fakeNode struct {
	mu     sync.Mutex
	posted []tx.Transaction
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	devnet, _ := config.LookupNetwork("devnet")
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/v2/node/configuration":
		io.WriteString(w, `{"data":{"nethash":"`+devnet.Nethash+`","token":"DARK","symbol":"DѦ","explorer":"https://dexplorer.ark.io","version":30,
			"constants":{"fees":{"staticFees":{"transfer":20000000,"vote":100000000}}}}}`)
	case r.URL.Path == "/api/v2/peers":
		io.WriteString(w, `{"data":[]}`)
	case r.URL.Path == "/api/v2/node/status":
		io.WriteString(w, `{"data":{"synced":true,"now":1234,"blocksCount":0}}`)
	case r.URL.Path == "/api/v2/wallets/"+testAddress:
		io.WriteString(w, `{"data":{"address":"`+testAddress+`","publicKey":"`+testPublicKey+`","balance":"250000000"}}`)
	case r.URL.Path == "/api/v2/transactions" && r.Method == http.MethodPost:
		var body struct {
			Transactions []tx.Transaction `json:"transactions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Transactions) != 1 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			io.WriteString(w, `{"statusCode":422,"error":"Unprocessable Entity","message":"bad body"}`)
			return
		}
		n.mu.Lock()
		n.posted = append(n.posted, body.Transactions[0])
		n.mu.Unlock()
		io.WriteString(w, `{"data":{"accept":["`+body.Transactions[0].ID+`"],"broadcast":[],"excess":[],"invalid":[]}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"statusCode":404,"error":"Not Found","message":"Not found"}`)
	}
}

func startNode(t *testing.T) (*fakeNode, string) {
	t.Helper()
	node := &fakeNode{}
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)
	return node, strings.TrimPrefix(srv.URL, "http://")
}

func TestNetworkStats(t *testing.T) {
	_, addr := startNode(t)
	out, errOut, code := runCLI(t, "", "--network", "devnet", "--peers", addr, "network", "stats")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "devnet")
	assert.Contains(t, out, addr)
	assert.Contains(t, out, "1234")
	assert.Contains(t, out, "DARK")
	assert.Contains(t, out, "Quarantined")
	assert.Contains(t, out, "Cached peers")
}

func TestNetworkStats_JSON(t *testing.T) {
	_, addr := startNode(t)
	out, errOut, code := runCLI(t, "", "--network", "devnet", "--peers", addr, "--format", "json", "network", "stats")
	require.Equal(t, 0, code, errOut)

	var stats struct {
		Server      string            `json:"server"`
		CachedPeers *int              `json:"cachedPeers"`
		Quarantined []json.RawMessage `json:"quarantined"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, addr, stats.Server)
	require.NotNil(t, stats.CachedPeers)
	assert.NotNil(t, stats.Quarantined)
	assert.Empty(t, stats.Quarantined)
}

func TestWalletStatus_JSON(t *testing.T) {
	_, addr := startNode(t)
	out, errOut, code := runCLI(t, "", "--network", "devnet", "--peers", addr, "--format", "json", "wallet", "status", testAddress)
	require.Equal(t, 0, code, errOut)

	var status struct {
		Address string `json:"address"`
		Balance uint64 `json:"balance"`
		Known   bool   `json:"known"`
		Votes   []any  `json:"votes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, testAddress, status.Address)
	assert.Equal(t, uint64(250000000), status.Balance)
	assert.True(t, status.Known)
	assert.Empty(t, status.Votes)
}

func TestWalletStatus_UnknownAddress(t *testing.T) {
	_, addr := startNode(t)
	out, errOut, code := runCLI(t, "", "--network", "devnet", "--peers", addr, "--node", addr, "wallet", "status", "DEHXB5HdRjYSuH8PHtJ3H6vquViHFVRQak")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "no transactions")
}

func TestWalletStatus_WrongNetworkAddress(t *testing.T) {
	_, errOut, code := runCLI(t, "", "--network", "devnet", "wallet", "status", "AQvJHKCcTUJKBF9n7wxotE2LVxugG3rhjh")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "is not a devnet address")
}

func TestWalletSend(t *testing.T) {
	node, addr := startNode(t)
	out, errOut, code := runCLI(t, testPassphrase+"\n",
		"--network", "devnet", "--peers", addr, "--format", "json",
		"wallet", "send", "--vendor", "thanks", "DEHXB5HdRjYSuH8PHtJ3H6vquViHFVRQak", "1.5")
	require.Equal(t, 0, code, errOut)

	var result struct {
		ID      string `json:"id"`
		Fee     uint64 `json:"fee"`
		Server  string `json:"server"`
		Relayed int    `json:"relayed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, addr, result.Server)
	assert.Zero(t, result.Relayed, "the server is the only peer")
	assert.Equal(t, uint64(20000000), result.Fee, "node fee wins over the static fee")

	node.mu.Lock()
	defer node.mu.Unlock()
	require.Len(t, node.posted, 1)
	posted := node.posted[0]
	assert.Equal(t, result.ID, posted.ID)
	assert.Equal(t, uint64(150000000), posted.Amount)
	assert.Equal(t, "thanks", posted.VendorField)
	assert.Equal(t, testPublicKey, posted.SenderPublicKey)
	require.NoError(t, posted.VerifySignature())

	id, err := posted.ComputeID()
	require.NoError(t, err)
	assert.Equal(t, posted.ID, id)
	_, err = hex.DecodeString(posted.Signature)
	assert.NoError(t, err)
}

func TestWalletSend_ExplicitFee(t *testing.T) {
	node, addr := startNode(t)
	_, errOut, code := runCLI(t, testPassphrase+"\n",
		"--network", "devnet", "--peers", addr,
		"wallet", "send", "--fee", "0.05", "DEHXB5HdRjYSuH8PHtJ3H6vquViHFVRQak", "1")
	require.Equal(t, 0, code, errOut)

	node.mu.Lock()
	defer node.mu.Unlock()
	require.Len(t, node.posted, 1)
	assert.Equal(t, uint64(5000000), node.posted[0].Fee)
}

func TestWalletSend_PinnedNode(t *testing.T) {
	node, addr := startNode(t)
	// The only bootstrap peer refuses connections; --node still takes the
	// transaction.
	out, errOut, code := runCLI(t, testPassphrase+"\n",
		"--network", "devnet", "--peers", "127.0.0.1:1", "--node", addr, "--format", "json",
		"wallet", "send", "DEHXB5HdRjYSuH8PHtJ3H6vquViHFVRQak", "1")
	require.Equal(t, 0, code, errOut)

	var result struct {
		ID      string `json:"id"`
		Server  string `json:"server"`
		Relayed int    `json:"relayed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, addr, result.Server)
	assert.Zero(t, result.Relayed)

	node.mu.Lock()
	defer node.mu.Unlock()
	require.Len(t, node.posted, 1)
	assert.Equal(t, result.ID, node.posted[0].ID)
}

func TestWalletUnvote_NoVote(t *testing.T) {
	_, addr := startNode(t)
	_, errOut, code := runCLI(t, testPassphrase+"\n", "--network", "devnet", "--peers", addr, "wallet", "unvote")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "has no vote to remove")
}

func TestWalletLedger_Unsupported(t *testing.T) {
	_, errOut, code := runCLI(t, "", "wallet", "ledger")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "hardware wallet not supported")
}
