package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ori-shem-tov/stark-vrf-oracle/ledger"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func MarkFlagRequired(flag *pflag.FlagSet, name string) {
	err := cobra.MarkFlagRequired(flag, name)
	if err != nil {
		panic(err)
	}
}

func SetLogger(logLevelEnv string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logLevel := log.WarnLevel
	if logLevelEnv == "debug" {
		logLevel = log.DebugLevel
	} else if logLevelEnv == "info" {
		logLevel = log.InfoLevel
	}
	log.SetLevel(logLevel)
}

// TestEnvironmentVariables takes name/value pairs and reports the names whose value is empty.
func TestEnvironmentVariables(vars ...string) error {
	if len(vars)%2 != 0 {
		return fmt.Errorf("odd number of arguments (%d)", len(vars))
	}
	var missing []string
	for i := 0; i < len(vars); i += 2 {
		if vars[i+1] == "" {
			missing = append(missing, vars[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s environment variable(s)", strings.Join(missing, ","))
	}
	return nil
}

func InitClients(ctx context.Context, rpcURL string) (*ledger.Client, error) {
	var failedClients []string
	client, err := ledger.Dial(ctx, rpcURL)
	if err != nil {
		failedClients = append(failedClients, "starknet rpc")
		log.Error(err)
	}
	if len(failedClients) > 0 {
		err = fmt.Errorf("failed creating the following client(s): %s", strings.Join(failedClients, ","))
	}
	return client, err
}
