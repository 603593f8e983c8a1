package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/models"
	"github.com/ori-shem-tov/stark-vrf-oracle/signer"
	"github.com/ori-shem-tov/stark-vrf-oracle/tools"
	"github.com/ori-shem-tov/stark-vrf-oracle/typeddata"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	callsFile     string
	chainID       string
	account       string
	privateKey    string
	callerString  string
	nonceString   string
	versionString string
	executeAfter  uint64
	executeBefore uint64
	validFor      time.Duration
)

type outsideExecutionOutput struct {
	TypedData        typeddata.TypedData           `json:"typed_data"`
	Hash             string                        `json:"hash"`
	Signature        []string                      `json:"signature"`
	OutsideExecution models.SignedOutsideExecution `json:"outside_execution"`
}

func init() {
	OutsideExecutionCmd.Flags().StringVar(&callsFile, "calls", "-",
		"JSON array of calls, as printed by build-vrf-calls (\"-\" reads stdin)")
	OutsideExecutionCmd.Flags().StringVar(&chainID, "chain-id", "SN_SEPOLIA", "chain id as a short string")

	OutsideExecutionCmd.Flags().StringVar(&account, "account", "", "address of the signing account (required)")
	tools.MarkFlagRequired(OutsideExecutionCmd.Flags(), "account")

	OutsideExecutionCmd.Flags().StringVar(&privateKey, "private-key", "",
		"private key of the signing account (defaults to $VRF_ACCOUNT_PRIVATE_KEY)")
	OutsideExecutionCmd.Flags().StringVar(&callerString, "caller", "ANY_CALLER",
		"address allowed to relay the calls, or ANY_CALLER")
	OutsideExecutionCmd.Flags().StringVar(&nonceString, "nonce", "", "outside execution nonce (random when empty)")
	OutsideExecutionCmd.Flags().StringVar(&versionString, "version", "v2", "typed data version, v1 or v2")
	OutsideExecutionCmd.Flags().Uint64Var(&executeAfter, "execute-after", 0, "unix time after which the calls may run")
	OutsideExecutionCmd.Flags().Uint64Var(&executeBefore, "execute-before", 0,
		"unix time before which the calls must run (now + --valid-for when 0)")
	OutsideExecutionCmd.Flags().DurationVar(&validFor, "valid-for", 10*time.Minute, "validity used when --execute-before is 0")
}

// readCalls decodes a JSON array of calls from path, or from stdin when path is "-".
func readCalls(path string, stdin io.Reader) ([]models.Call, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var calls []models.Call
	if err := json.NewDecoder(r).Decode(&calls); err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, errors.New("no calls to sign")
	}
	return calls, nil
}

func parseCaller(s string) (*felt.Felt, error) {
	if strings.EqualFold(strings.TrimSpace(s), "ANY_CALLER") {
		return typeddata.AnyCaller, nil
	}
	return codec.ParseFelt(s)
}

// parseNonce parses s, or draws a random nonce when s is empty.
func parseNonce(s string) (*felt.Felt, error) {
	if strings.TrimSpace(s) == "" {
		return typeddata.RandomNonce()
	}
	return codec.ParseFelt(s)
}

// deadline is before, or now+validFor when before is 0.
func deadline(before uint64, now time.Time, validFor time.Duration) uint64 {
	if before != 0 {
		return before
	}
	return uint64(now.Add(validFor).Unix())
}

var OutsideExecutionCmd = &cobra.Command{
	Use:   "outside-execution",
	Short: "builds, hashes and signs an outside execution for a list of calls",
	Run: func(cmd *cobra.Command, args []string) {
		key := tools.FlagOrEnv(privateKey, "VRF_ACCOUNT_PRIVATE_KEY")
		if err := tools.TestEnvironmentVariables("VRF_ACCOUNT_PRIVATE_KEY", key); err != nil {
			log.Error(err)
			return
		}

		calls, err := readCalls(callsFile, os.Stdin)
		if err != nil {
			log.Errorf("failed reading calls: %v", err)
			return
		}
		version, err := typeddata.ParseVersion(versionString)
		if err != nil {
			log.Error(err)
			return
		}
		chain, err := codec.EncodeShortString(chainID)
		if err != nil {
			log.Errorf("invalid chain id: %v", err)
			return
		}
		caller, err := parseCaller(callerString)
		if err != nil {
			log.Errorf("invalid caller: %v", err)
			return
		}

		nonce, err := parseNonce(nonceString)
		if err != nil {
			log.Errorf("invalid nonce: %v", err)
			return
		}

		address, err := codec.ParseFelt(account)
		if err != nil {
			log.Errorf("invalid account: %v", err)
			return
		}
		pk, err := signer.ParsePrivateKey(key)
		if err != nil {
			log.Errorf("invalid private key: %v", err)
			return
		}
		localSigner, err := signer.NewLocalSigner(address, pk)
		if err != nil {
			log.Error(err)
			return
		}

		msg, err := typeddata.BuildMessage(chain, typeddata.CallOptions{
			Caller:        caller,
			ExecuteAfter:  executeAfter,
			ExecuteBefore: deadline(executeBefore, time.Now(), validFor),
		}, nonce, calls, version)
		if err != nil {
			log.Error(err)
			return
		}
		signed, err := localSigner.SignMessage(msg)
		if err != nil {
			log.Error(err)
			return
		}
		td, err := msg.TypedData()
		if err != nil {
			log.Error(err)
			return
		}

		printJSON(outsideExecutionOutput{
			TypedData:        td,
			Hash:             codec.Hex(signed.Hashed().Hash()),
			Signature:        codec.HexList(signed.Signature().Felts()),
			OutsideExecution: signed.OutsideExecution(),
		})
	},
}
