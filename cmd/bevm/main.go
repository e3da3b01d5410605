// Command bevm runs a single EVM message (a CALL or a CREATE) against a
// throwaway in-memory world state and reports the gas used, return data,
// and revert status. It exists to exercise the interpreter end to end
// without a node, an RPC server, or a real chain behind it.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/berlinvm/berlinvm/common/types"
	"github.com/berlinvm/berlinvm/core"
	"github.com/berlinvm/berlinvm/core/state"
	"github.com/berlinvm/berlinvm/core/vm"
	"github.com/berlinvm/berlinvm/log"
	"github.com/holiman/uint256"
)

var (
	version = "v0.1.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("bevm", flag.ContinueOnError)

	code := fs.String("code", "", "hex-encoded bytecode (CALL: code deployed at --to; CREATE: init code when --to is empty)")
	input := fs.String("input", "", "hex-encoded calldata")
	sender := fs.String("sender", "0x0000000000000000000000000000000000000001", "hex sender address")
	to := fs.String("to", "", "hex recipient address; omit for contract creation")
	gasLimit := fs.Uint64("gas", 1_000_000, "gas limit for the message")
	value := fs.Uint64("value", 0, "wei value to transfer")
	gasPrice := fs.Uint64("gasprice", 1, "gas price in wei")
	balance := fs.Uint64("balance", 0, "starting balance credited to --sender before execution")
	chainID := fs.Uint64("chainid", 1, "chain ID exposed to CHAINID")
	verbosity := fs.Int("verbosity", 3, "log level 0-5 (0-1=error, 2=warn, 3=info, 4-5=debug)")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	if *showVersion {
		fmt.Printf("bevm %s (commit %s)\n", version, commit)
		return 0
	}

	setupLogging(*verbosity)

	codeBytes, err := decodeHex(*code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: --code: %v\n", err)
		return 2
	}
	inputBytes, err := decodeHex(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: --input: %v\n", err)
		return 2
	}
	senderAddr := types.HexToAddress(*sender)

	db := state.NewMemoryStateDB(nil)
	db.CreateAccount(senderAddr)
	if *balance > 0 {
		db.AddBalance(senderAddr, uint256.NewInt(*balance))
	}

	var toAddr *types.Address
	if *to != "" {
		a := types.HexToAddress(*to)
		toAddr = &a
		db.CreateAccount(a)
		db.SetCode(a, codeBytes)
	}

	interp := vm.NewInterpreter(db, *chainID, vm.BlockContext{
		GasLimit:    30_000_000,
		BlockNumber: 1,
		Difficulty:  new(uint256.Int),
		BaseFee:     new(uint256.Int),
		GetHash:     func(uint64) types.Hash { return types.Hash{} },
	}, vm.TxContext{
		Origin:   senderAddr,
		GasPrice: uint256.NewInt(*gasPrice),
	})

	msg := &core.Message{
		From:     senderAddr,
		To:       toAddr,
		Nonce:    db.GetNonce(senderAddr),
		Value:    uint256.NewInt(*value),
		GasLimit: *gasLimit,
		GasPrice: uint256.NewInt(*gasPrice),
		Data:     inputBytes,
	}
	if toAddr == nil {
		msg.Data = codeBytes
	}

	log.Info("executing message", "from", senderAddr.Hex(), "create", toAddr == nil, "gas", *gasLimit)

	result, err := core.ExecuteTransaction(interp, db, msg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	out := struct {
		UsedGas         uint64 `json:"usedGas"`
		ReturnData      string `json:"returnData"`
		ContractAddress string `json:"contractAddress,omitempty"`
		Reverted        bool   `json:"reverted"`
		Error           string `json:"error,omitempty"`
	}{
		UsedGas:    result.UsedGas,
		ReturnData: "0x" + hex.EncodeToString(result.ReturnData),
		Reverted:   result.Reverted,
	}
	if toAddr == nil {
		out.ContractAddress = result.ContractAddress.Hex()
	}
	if result.Err != nil {
		out.Error = result.Err.Error()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
	return 0
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

func setupLogging(verbosity int) {
	var lvl slog.Level
	switch {
	case verbosity <= 1:
		lvl = slog.LevelError
	case verbosity == 2:
		lvl = slog.LevelWarn
	case verbosity == 3:
		lvl = slog.LevelInfo
	default:
		lvl = slog.LevelDebug
	}
	log.SetDefault(log.New(lvl))
}
