package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/signer"
	"github.com/ori-shem-tov/stark-vrf-oracle/tools"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var hashString string

func init() {
	StarkKeyCmd.Flags().StringVar(&privateKey, "private-key", "", "private key, hex or decimal (defaults to $VRF_ACCOUNT_PRIVATE_KEY)")

	SignHashCmd.Flags().StringVar(&privateKey, "private-key", "", "private key, hex or decimal (defaults to $VRF_ACCOUNT_PRIVATE_KEY)")
	SignHashCmd.Flags().StringVar(&hashString, "hash", "", "message hash to sign (required)")
	tools.MarkFlagRequired(SignHashCmd.Flags(), "hash")
}

func printJSON(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Errorf("failed encoding output: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, string(b))
}

func loadPrivateKey() (*signer.PrivateKey, error) {
	key := tools.FlagOrEnv(privateKey, "VRF_ACCOUNT_PRIVATE_KEY")
	if err := tools.TestEnvironmentVariables("VRF_ACCOUNT_PRIVATE_KEY", key); err != nil {
		return nil, err
	}
	return signer.ParsePrivateKey(key)
}

var StarkKeyCmd = &cobra.Command{
	Use:   "stark-key",
	Short: "prints the public stark key of a private key",
	Run: func(cmd *cobra.Command, args []string) {
		key, err := loadPrivateKey()
		if err != nil {
			log.Error(err)
			return
		}
		pub := key.Public().Point()
		printJSON(map[string]string{
			"stark_key": codec.Hex(key.Public().StarkKey()),
			"y":         fmt.Sprintf("0x%x", pub.Y()),
		})
	},
}

var SignHashCmd = &cobra.Command{
	Use:   "sign-hash",
	Short: "signs a raw message hash and prints r and s",
	Run: func(cmd *cobra.Command, args []string) {
		key, err := loadPrivateKey()
		if err != nil {
			log.Error(err)
			return
		}
		hash, err := codec.ParseFelt(hashString)
		if err != nil {
			log.Errorf("invalid hash: %v", err)
			return
		}
		sig, err := signer.Sign(hash, key)
		if err != nil {
			log.Error(err)
			return
		}
		printJSON(map[string]string{"r": codec.Hex(sig.R), "s": codec.Hex(sig.S)})
	},
}
