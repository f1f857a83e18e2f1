package main

import (
	"os"

	"github.com/sahulatai/agentic-backend/internal/platform/logger"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {

	var listenAddr string
	var monitoringAddr string
	var consumeCredentialEvents bool
	var tenantID string
	var integration string

	// rootCmd represents the base command when called without any subcommands
	var rootCmd = &cobra.Command{
		Use: "agentic-backend",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.InitLogger()
		},
	}

	var apiServerCmd = &cobra.Command{
		Use:   "api_server",
		Short: "Agent and connection management API server",
		Run: func(cmd *cobra.Command, args []string) {
			startAgenticBackendApiServer(listenAddr, monitoringAddr, consumeCredentialEvents)
		},
	}

	var credentialCheckCmd = &cobra.Command{
		Use:   "credential_check",
		Short: "Open a capability server connection for one tenant and list its tools",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runCredentialCheck(cmd.Context(), tenantID, integration, os.Stdout); err != nil {
				logger.LogFatalError("Credential check failed", err)
			}
		},
	}

	rootCmd.AddCommand(apiServerCmd)
	apiServerCmd.Flags().StringVarP(&listenAddr, "listen-addr", "l", "", "Hostname:port for the api (defaults to the configured api port)")
	apiServerCmd.Flags().StringVarP(&monitoringAddr, "monitoring-addr", "m", "", "Hostname:port for metrics and probes (defaults to the configured monitoring port)")
	apiServerCmd.Flags().BoolVarP(&consumeCredentialEvents, "consume-credential-events", "c", false, "Invalidate connections when credential events arrive on kafka")

	rootCmd.AddCommand(credentialCheckCmd)
	credentialCheckCmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "Tenant id (defaults to the configured credential check tenant)")
	credentialCheckCmd.Flags().StringVarP(&integration, "integration", "i", "", "Integration name (defaults to the configured credential check integration)")

	return rootCmd
}

func main() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
