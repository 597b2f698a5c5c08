package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bacalhau-project/imagesmith/pkg/logger"
	"github.com/bacalhau-project/imagesmith/pkg/providers/azure"
	"github.com/bacalhau-project/imagesmith/pkg/workflow"
)

var (
	cfgFile      string
	stateDir     string
	verboseMode  bool
	pollInterval time.Duration
	pollTimeout  time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imagesmith",
	Short: "Imagesmith bakes Azure VM images",
	Long: `Imagesmith is a tool for baking Azure VM images: it provisions a
build VM from a base image, waits while an operator customizes it, then
captures specialized and generalized images and imports the result into a
compute gallery.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.imagesmith.yaml)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory for build checkpoints (default is $HOME/.imagesmith)")
	rootCmd.PersistentFlags().BoolVar(&verboseMode, "verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().DurationVar(&pollInterval, "poll-interval", 0, "Override the polling interval for every wait")
	rootCmd.PersistentFlags().DurationVar(&pollTimeout, "poll-timeout", 0, "Override the timeout for every wait")

	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(statusCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".imagesmith" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".imagesmith")
	}

	viper.SetEnvPrefix("IMAGESMITH")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		logger.Get().Debugf("Using config file: %s", viper.ConfigFileUsed())
	}

	if verboseMode {
		viper.Set("general.log_level", "debug")
		viper.Set("general.enable_console_logger", true)
	}
	logger.InitLoggerOutputs()
}

// resolveStateDir applies the flag, then the config key, then the default.
func resolveStateDir() (string, error) {
	if stateDir != "" {
		return stateDir, nil
	}
	if dir := viper.GetString("general.state_dir"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".imagesmith"), nil
}

// newWorkflow builds the workflow with a live provider client. The
// subscription ID comes from config or AZURE_SUBSCRIPTION_ID; credentials
// come from the default Azure credential chain.
func newWorkflow() (*workflow.Workflow, error) {
	subscriptionID := viper.GetString("azure.subscription_id")
	if subscriptionID == "" {
		subscriptionID = os.Getenv("AZURE_SUBSCRIPTION_ID")
	}
	client, err := azure.NewClientFunc(subscriptionID)
	if err != nil {
		return nil, err
	}

	dir, err := resolveStateDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	w := workflow.New(client, dir)
	w.PollInterval = pollInterval
	w.PollTimeout = pollTimeout
	return w, nil
}
