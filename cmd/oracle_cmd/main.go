package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/lockmint-io/bridge-oracle/cmd"
	"github.com/lockmint-io/bridge-oracle/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "ORACLE_CONFIG"
)

func main() {
	logconfig.ConfigProductionLogger()

	// Tool to read environment variables
	viper.AutomaticEnv()

	// Accessing an environment variable of configuration file location.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	fmt.Printf("Oracle server configuration file = %s\n", _config_file)

	// See if file exists
	if !cmd.FileExists(_config_file) {
		fmt.Printf("Oracle server configuration file not found: %s\n", _config_file)
		return
	}

	// Read from config file.
	success := initializeViper(_config_file)
	if !success {
		return
	}

	// Make the configuration
	osc := PrepareOracleServerConfig()

	fmt.Println("Starting oracle server... press Ctrl+C to kill the server")
	// Start server and block.
	cmd.StartOracleServerAndWait(osc)
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

// PrepareOracleServerConfig reads configuration variables and returns an OracleServerConfig.
func PrepareOracleServerConfig() *cmd.OracleServerConfig {
	// -1 = honor the cursor already in statedb
	viper.SetDefault("ETH_RETRO_SCAN_BLK", -1)

	return &cmd.OracleServerConfig{
		// eth side
		EthRpcUrl:          viper.GetString("ETH_RPC_URL"),
		BridgeContractAddr: viper.GetString("BRIDGE_CONTRACT_ADDR"),
		EthRetroScanBlk:    viper.GetInt64("ETH_RETRO_SCAN_BLK"),
		ConfirmationDepth:  viper.GetInt64("CONFIRMATION_DEPTH"),
		ChunkSize:          viper.GetInt64("CHUNK_SIZE"),
		PollingIntervalSec: viper.GetInt64("POLLING_INTERVAL_SEC"),
		// retry side
		RetryMaxAttempts: viper.GetInt64("RETRY_MAX_ATTEMPTS"),
		BackoffBaseMs:    viper.GetInt64("BACKOFF_BASE_MS"),
		BackoffCapSec:    viper.GetInt64("BACKOFF_CAP_SEC"),
		// state side
		DbFilePath: viper.GetString("DB_FILE_PATH"),
		// destination side
		RelayerApiUrl: viper.GetString("RELAYER_API_URL"),
		// validation side
		MaxDepositEth: viper.GetString("MAX_DEPOSIT_ETH"),
		RiskOracleUrl: viper.GetString("RISK_ORACLE_URL"),
		RiskFailOpen:  viper.GetBool("RISK_FAIL_OPEN"),
		// Http side
		HttpIp:   viper.GetString("HTTP_IP"),
		HttpPort: viper.GetString("HTTP_PORT"),
		// simulation
		Simulate: viper.GetBool("SIMULATE"),
	}
}
