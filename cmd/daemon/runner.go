package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ori-shem-tov/stark-vrf-oracle/daemon"
	"github.com/ori-shem-tov/stark-vrf-oracle/tools"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	secretKey         string // VRF secret scalar
	proverURL         string // VRF server used instead of secretKey
	accountAddress    string // address of the VRF account
	accountPrivateKey string // signing key of the VRF account
	host              string
	port              int
	rateLimit         float64
	rateBurst         int
	trustedProxies    []string
	sepoliaRPC        string
	mainnetRPC        string

	configFile string // The config file to read settings from
)

func init() {
	RunDaemonCmd.Flags().StringVar(&secretKey, "secret-key", "",
		"VRF secret key, hex or decimal (defaults to $VRF_SECRET_KEY)")
	RunDaemonCmd.Flags().StringVar(&proverURL, "prover-url", "",
		"VRF server proving on behalf of the daemon instead of --secret-key (defaults to $VRF_PROVER_URL)")
	RunDaemonCmd.Flags().StringVar(&accountAddress, "account-address", "",
		"address of the VRF account (defaults to $VRF_ACCOUNT_ADDRESS)")
	RunDaemonCmd.Flags().StringVar(&accountPrivateKey, "account-private-key", "",
		"private key of the VRF account (defaults to $VRF_ACCOUNT_PRIVATE_KEY)")
	RunDaemonCmd.Flags().StringVar(&host, "host", "0.0.0.0", "address to listen on")
	RunDaemonCmd.Flags().IntVar(&port, "port", 3000, "port to listen on")
	RunDaemonCmd.Flags().Float64Var(&rateLimit, "rate-limit", 0,
		"requests per second allowed per client on the proof routes, 0 disables")
	RunDaemonCmd.Flags().IntVar(&rateBurst, "rate-burst", 0, "burst allowed per client")
	RunDaemonCmd.Flags().StringSliceVar(&trustedProxies, "trusted-proxies", nil,
		"proxies, as CIDRs or addresses, whose X-Forwarded-For header identifies the client")
	RunDaemonCmd.Flags().StringVar(&sepoliaRPC, "sepolia-rpc", "", "rpc url used for SN_SEPOLIA requests")
	RunDaemonCmd.Flags().StringVar(&mainnetRPC, "mainnet-rpc", "", "rpc url used for SN_MAIN requests")

	RunFromConfig.Flags().StringVar(&configFile, "config", "", "JSON or YAML config file to use (required)")
	tools.MarkFlagRequired(RunFromConfig.Flags(), "config")
}

// serve runs d until SIGINT or SIGTERM.
func serve(d *daemon.VRFDaemon) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := d.Start(ctx); err != nil {
		log.Fatalf("daemon stopped: %v", err)
	}
	log.Info("daemon stopped")
}

var RunDaemonCmd = &cobra.Command{
	Use:   "run-daemon",
	Short: "runs the relay daemon configured by flags and environment",
	Run: func(cmd *cobra.Command, args []string) {
		conf := daemon.Config{
			Host:              host,
			Port:              port,
			SecretKey:         tools.FlagOrEnv(secretKey, "VRF_SECRET_KEY"),
			ProverURL:         tools.FlagOrEnv(proverURL, "VRF_PROVER_URL"),
			AccountAddress:    tools.FlagOrEnv(accountAddress, "VRF_ACCOUNT_ADDRESS"),
			AccountPrivateKey: tools.FlagOrEnv(accountPrivateKey, "VRF_ACCOUNT_PRIVATE_KEY"),
			RateLimit:         rateLimit,
			RateBurst:         rateBurst,
			TrustedProxies:    trustedProxies,
			RPCURLs:           map[string]string{},
		}
		if sepoliaRPC != "" {
			conf.RPCURLs["SN_SEPOLIA"] = sepoliaRPC
		}
		if mainnetRPC != "" {
			conf.RPCURLs["SN_MAIN"] = mainnetRPC
		}

		d, err := daemon.New(conf)
		if err != nil {
			log.Fatalf("failed to create daemon: %v", err)
		}
		serve(d)
	},
}

var RunFromConfig = &cobra.Command{
	Use:   "run",
	Short: "runs the relay daemon from a config file",
	Run: func(cmd *cobra.Command, args []string) {
		d, err := daemon.NewFromConfig(configFile)
		if err != nil {
			log.Fatalf("failed to create daemon from %s: %v", configFile, err)
		}
		serve(d)
	},
}
