package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/brojonat/solprereq/service/codec"
	"github.com/brojonat/solprereq/service/runner"
	solanaclient "github.com/brojonat/solprereq/service/solana"
	"github.com/brojonat/solprereq/service/txn"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRPC is a JSON-RPC server answering the handful of methods the gateway uses.
type fakeRPC struct {
	mu      sync.Mutex
	balance uint64
	fee     uint64
	// pending leaves every signature without a status.
	pending bool
	height  uint64
	methods []string
}

func (f *fakeRPC) called(method string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.methods {
		if m == method {
			return true
		}
	}
	return false
}

func (f *fakeRPC) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.methods = append(f.methods, req.Method)
	f.mu.Unlock()

	ctx := map[string]interface{}{"slot": 1}
	var sig solana.Signature
	sig[0] = 7

	var result interface{}
	switch req.Method {
	case "getBalance":
		result = map[string]interface{}{"context": ctx, "value": f.balance}
	case "getLatestBlockhash":
		hash := solana.Hash(sha256.Sum256([]byte("blockhash")))
		result = map[string]interface{}{"context": ctx, "value": map[string]interface{}{
			"blockhash":            hash.String(),
			"lastValidBlockHeight": 100,
		}}
	case "getFeeForMessage":
		result = map[string]interface{}{"context": ctx, "value": f.fee}
	case "sendTransaction", "requestAirdrop":
		result = sig.String()
	case "getBlockHeight":
		result = f.height
	case "getSignatureStatuses":
		if f.pending {
			result = map[string]interface{}{"context": ctx, "value": []interface{}{nil}}
			break
		}
		result = map[string]interface{}{"context": ctx, "value": []interface{}{
			map[string]interface{}{
				"slot":               1,
				"confirmations":      nil,
				"err":                nil,
				"confirmationStatus": "finalized",
			},
		}}
	default:
		http.Error(w, fmt.Sprintf("unexpected method %s", req.Method), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  result,
	})
}

// rpcArgs points the CLI at server and the two key files.
func rpcArgs(server *httptest.Server, devPath, walletPath string) []string {
	return []string{
		"--rpc-url", server.URL,
		"--dev-wallet", devPath,
		"--wallet", walletPath,
		"--confirm-poll-interval", "10ms",
		"--log-level", "error",
	}
}

func TestBalanceCommand(t *testing.T) {
	rpc := &fakeRPC{balance: 2_000_000_000}
	server := httptest.NewServer(rpc)
	defer server.Close()

	dir := t.TempDir()
	dev, devPath := writeKey(t, dir, "dev-wallet.json")
	_, walletPath := writeKey(t, dir, "wallet.json")

	args := append(rpcArgs(server, devPath, walletPath), "balance", "--jq", ".lamports")
	out, err := runApp(t, "", args...)
	require.NoError(t, err)
	assert.Equal(t, "2000000000", strings.TrimSpace(out))

	args = append(rpcArgs(server, devPath, walletPath), "balance")
	out, err = runApp(t, "", args...)
	require.NoError(t, err)
	assert.Contains(t, out, dev.PublicKey().String())
	assert.Contains(t, out, "2.000000000 SOL")
}

func TestTransferCommand(t *testing.T) {
	rpc := &fakeRPC{}
	server := httptest.NewServer(rpc)
	defer server.Close()

	dir := t.TempDir()
	dev, devPath := writeKey(t, dir, "dev-wallet.json")
	target, walletPath := writeKey(t, dir, "wallet.json")

	args := append(rpcArgs(server, devPath, walletPath), "transfer", "--json")
	out, err := runApp(t, "", args...)
	require.NoError(t, err)

	var res runner.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, runner.KindTransfer, res.Kind)
	assert.Equal(t, dev.PublicKey().String(), res.FeePayer)
	assert.Equal(t, target.PublicKey().String(), res.To)
	assert.Equal(t, runner.DefaultTransferLamports, res.Amount)
	assert.Equal(t, "https://explorer.solana.com/tx/"+res.Signature+"?cluster=devnet", res.ExplorerURL)
	assert.True(t, rpc.called("sendTransaction"))
	assert.True(t, rpc.called("getSignatureStatuses"))
}

func TestDrainCommand(t *testing.T) {
	rpc := &fakeRPC{balance: 1_000_000, fee: 5_000}
	server := httptest.NewServer(rpc)
	defer server.Close()

	dir := t.TempDir()
	_, devPath := writeKey(t, dir, "dev-wallet.json")
	_, walletPath := writeKey(t, dir, "wallet.json")

	args := append(rpcArgs(server, devPath, walletPath), "drain", "--jq", "[.amount, .fee]")
	out, err := runApp(t, "", args...)
	require.NoError(t, err)
	assert.Equal(t, "[995000,5000]", strings.TrimSpace(out))
}

func TestDrainCommand_InsufficientFunds(t *testing.T) {
	rpc := &fakeRPC{balance: 1_000, fee: 5_000}
	server := httptest.NewServer(rpc)
	defer server.Close()

	dir := t.TempDir()
	_, devPath := writeKey(t, dir, "dev-wallet.json")
	_, walletPath := writeKey(t, dir, "wallet.json")

	args := append(rpcArgs(server, devPath, walletPath), "drain")
	_, err := runApp(t, "", args...)
	require.Error(t, err)
	assert.ErrorIs(t, err, txn.ErrInsufficientFunds)
	assert.False(t, rpc.called("sendTransaction"))
}

func TestSubmitCommand(t *testing.T) {
	rpc := &fakeRPC{}
	server := httptest.NewServer(rpc)
	defer server.Close()

	dir := t.TempDir()
	_, devPath := writeKey(t, dir, "dev-wallet.json")
	target, walletPath := writeKey(t, dir, "wallet.json")

	args := append(rpcArgs(server, devPath, walletPath), "submit", "--github", "octocat", "--json")
	out, err := runApp(t, "", args...)
	require.NoError(t, err)

	var res runner.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	program := solana.MustPublicKeyFromBase58(txn.DefaultPrereqProgramID)
	pda, err := txn.PrereqAddress(program, target.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, pda.Address.String(), res.Derived)
	assert.Equal(t, target.PublicKey().String(), res.FeePayer)
}

func TestAirdropCommand(t *testing.T) {
	rpc := &fakeRPC{}
	server := httptest.NewServer(rpc)
	defer server.Close()

	dir := t.TempDir()
	dev, devPath := writeKey(t, dir, "dev-wallet.json")
	_, walletPath := writeKey(t, dir, "wallet.json")

	args := append(rpcArgs(server, devPath, walletPath), "airdrop")
	out, err := runApp(t, "", args...)
	require.NoError(t, err)
	assert.Contains(t, out, "airdrop confirmed")
	assert.Contains(t, out, "https://explorer.solana.com/tx/")
	assert.True(t, rpc.called("requestAirdrop"))

	args = append(rpcArgs(server, devPath, walletPath), "airdrop", "--jq", ".fee_payer")
	out, err = runApp(t, "", args...)
	require.NoError(t, err)
	assert.Equal(t, dev.PublicKey().String(), strings.TrimSpace(out))
}

func TestPDACommand(t *testing.T) {
	dir := t.TempDir()
	target, walletPath := writeKey(t, dir, "wallet.json")

	out, err := runApp(t, "", "--wallet", walletPath, "pda", "--json")
	require.NoError(t, err)

	var got struct {
		Program string   `json:"program"`
		Seeds   []string `json:"seeds"`
		Address string   `json:"address"`
		Bump    uint8    `json:"bump"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	program := solana.MustPublicKeyFromBase58(txn.DefaultPrereqProgramID)
	pda, err := txn.PrereqAddress(program, target.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, pda.Address.String(), got.Address)
	assert.Equal(t, pda.Bump, got.Bump)
	assert.Equal(t, txn.DefaultPrereqProgramID, got.Program)
	// "prereq" then the wallet address itself
	assert.Equal(t, []string{codec.Encode([]byte("prereq")), target.PublicKey().String()}, got.Seeds)
}

func TestSubmitCommand_RequiresGithub(t *testing.T) {
	_, err := runApp(t, "", "submit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github")
}

func TestTransferCommand_BlockhashExpired(t *testing.T) {
	rpc := &fakeRPC{pending: true, height: 101}
	server := httptest.NewServer(rpc)
	defer server.Close()

	dir := t.TempDir()
	_, devPath := writeKey(t, dir, "dev-wallet.json")
	_, walletPath := writeKey(t, dir, "wallet.json")

	args := append(rpcArgs(server, devPath, walletPath), "transfer")
	_, err := runApp(t, "", args...)
	require.Error(t, err)
	assert.ErrorIs(t, err, solanaclient.ErrBlockhashExpired)
	assert.True(t, rpc.called("sendTransaction"))
	assert.True(t, rpc.called("getBlockHeight"))
}
