package main

import (
	"os"
	"strings"

	"github.com/ori-shem-tov/stark-vrf-oracle/cmd/daemon"
	"github.com/ori-shem-tov/stark-vrf-oracle/tools"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var envFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before running a command")

	rootCmd.AddCommand(daemon.RunDaemonCmd)
	rootCmd.AddCommand(daemon.RunFromConfig)
	rootCmd.AddCommand(BuildVRFCallsCmd)
	rootCmd.AddCommand(OutsideExecutionCmd)
	rootCmd.AddCommand(StarkKeyCmd)
	rootCmd.AddCommand(SignHashCmd)
}

var rootCmd = &cobra.Command{
	Use:   "stark-vrf-oracle",
	Short: "builds and relays verifiable randomness for Starknet contracts",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := tools.LoadEnv(envFile); err != nil {
			log.Warnf("failed loading %s: %v", envFile, err)
		}
		tools.SetLogger(strings.ToLower(os.Getenv("VRF_LOG_LEVEL")))
	},
	Run: func(cmd *cobra.Command, args []string) {
		//If no arguments passed, we should fallback to help
		cmd.HelpFunc()(cmd, args)
	},
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		panic(err)
	}
}
