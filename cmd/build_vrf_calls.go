package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/models"
	"github.com/ori-shem-tov/stark-vrf-oracle/tools"
	"github.com/ori-shem-tov/stark-vrf-oracle/vrf"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rpcURL             string
	providerAddress    string
	requesterAddress   string
	consumerAddress    string
	consumerEntrypoint string
	consumerCalldata   []string
	secretKey          string
	proverURL          string
	retries            int
	timeout            time.Duration
)

func init() {
	BuildVRFCallsCmd.Flags().StringVar(&rpcURL, "rpc-url", "", "starknet rpc url (defaults to $STARKNET_RPC_URL)")

	BuildVRFCallsCmd.Flags().StringVar(&providerAddress, "provider", "", "address of the VRF provider (required)")
	tools.MarkFlagRequired(BuildVRFCallsCmd.Flags(), "provider")

	BuildVRFCallsCmd.Flags().StringVar(&requesterAddress, "requester", "", "address requesting randomness (required)")
	tools.MarkFlagRequired(BuildVRFCallsCmd.Flags(), "requester")

	BuildVRFCallsCmd.Flags().StringVar(&consumerAddress, "consumer", "", "contract consuming the randomness (required)")
	tools.MarkFlagRequired(BuildVRFCallsCmd.Flags(), "consumer")

	BuildVRFCallsCmd.Flags().StringVar(&consumerEntrypoint, "entrypoint", "", "entry point of the consumer call (required)")
	tools.MarkFlagRequired(BuildVRFCallsCmd.Flags(), "entrypoint")

	BuildVRFCallsCmd.Flags().StringSliceVar(&consumerCalldata, "calldata", nil, "calldata of the consumer call")
	BuildVRFCallsCmd.Flags().StringVar(&secretKey, "secret-key", "",
		"VRF secret; when set the proof is submitted in the bundle (defaults to $VRF_SECRET_KEY)")
	BuildVRFCallsCmd.Flags().StringVar(&proverURL, "prover-url", "", "VRF server used to prove instead of the local key")
	BuildVRFCallsCmd.Flags().IntVar(&retries, "retries", 3, "number of attempts at building the bundle")
	BuildVRFCallsCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
}

// bundleRequest parses the addresses and the consumer call of a bundle.
func bundleRequest(provider, requester, consumer, entrypoint string, calldata []string) (vrf.BundleRequest, error) {
	providerFelt, err := codec.ParseFelt(provider)
	if err != nil {
		return vrf.BundleRequest{}, fmt.Errorf("invalid provider: %w", err)
	}
	requesterFelt, err := codec.ParseFelt(requester)
	if err != nil {
		return vrf.BundleRequest{}, fmt.Errorf("invalid requester: %w", err)
	}
	consumerFelt, err := codec.ParseFelt(consumer)
	if err != nil {
		return vrf.BundleRequest{}, fmt.Errorf("invalid consumer: %w", err)
	}
	data, err := codec.ParseFeltList(calldata)
	if err != nil {
		return vrf.BundleRequest{}, fmt.Errorf("invalid calldata: %w", err)
	}
	call, err := models.NewCall(consumerFelt, entrypoint, data...)
	if err != nil {
		return vrf.BundleRequest{}, err
	}
	return vrf.BundleRequest{Requester: requesterFelt, Provider: providerFelt, Consumer: call}, nil
}

// proverFactory proves locally unless a VRF server url is given.
func proverFactory(url string, timeout time.Duration) vrf.ProverFactory {
	if url == "" {
		return vrf.NewLocalProver
	}
	return vrf.RemoteProverFactory(url, &http.Client{Timeout: timeout})
}

var BuildVRFCallsCmd = &cobra.Command{
	Use:   "build-vrf-calls",
	Short: "reads the next seed and prints the VRF call bundle as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		url := tools.FlagOrEnv(rpcURL, "STARKNET_RPC_URL")
		if err := tools.TestEnvironmentVariables("STARKNET_RPC_URL", url); err != nil {
			log.Error(err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		client, err := tools.InitClients(ctx, url)
		if err != nil {
			log.Error(err)
			return
		}
		defer client.Close()

		req, err := bundleRequest(providerAddress, requesterAddress, consumerAddress, consumerEntrypoint, consumerCalldata)
		if err != nil {
			log.Error(err)
			return
		}
		req.Secret = tools.FlagOrEnv(secretKey, "VRF_SECRET_KEY")

		provers := proverFactory(proverURL, timeout)
		bundler := vrf.NewBundler(client, provers)

		var calls []models.Call
		err = tools.Retry(ctx, time.Second, retries, func(ctx context.Context) error {
			calls, err = bundler.BuildBundle(ctx, req)
			return err
		}, func(err error) {
			log.Warnf("failed building bundle: %v", err)
		})
		if err != nil {
			log.Error(err)
			return
		}
		printJSON(calls)
	},
}
