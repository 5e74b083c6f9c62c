/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	cfgFile string
	verbose bool
	logFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "seaward-capture",
	Short: "Download measurement reports from Seaward 200/210 test meters",
	Long: `seaward-capture acquires the measurement dataset stored on a
Seaward 200/210 series handheld test meter over a USB-serial cable.

The meter only transmits while the host keeps requesting and the operator
triggers the download from the instrument's keypad, so a capture is an
interactive session: the tool finds the cable, keeps asking, locks on when
data starts flowing, and saves the validated report as CSV once the meter
goes quiet.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.seaward-capture.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also log to this file (JSON, rotated)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".seaward-capture")
	}

	setDefaults()

	viper.SetEnvPrefix("SEAWARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	viper.SetDefault("serial.baud", 9600)
	viper.SetDefault("serial.read-timeout", 100*time.Millisecond)
	viper.SetDefault("capture.request-period", time.Second)
	viper.SetDefault("capture.quiet-timeout", 5*time.Second)
	viper.SetDefault("capture.idle-sleep", 20*time.Millisecond)
	viper.SetDefault("capture.dir", "captures/seaward")
	viper.SetDefault("capture.history-db", "captures/seaward/history.db")
	viper.SetDefault("discovery.poll-interval", time.Second)
	viper.SetDefault("device.vid", "0x10C4")
	viper.SetDefault("device.pid", "0xEA60")
	viper.SetDefault("device.chip-marker", "CP2102")
	viper.SetDefault("device.vendor", "SILICON LABS")
}

// newLogger builds the CLI logger: human-readable console output on stderr,
// plus an optional rotated JSON file when --log-file is set.
func newLogger() *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)

	core := consoleCore
	if logFile != "" {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			}),
			level,
		)
		core = zapcore.NewTee(consoleCore, fileCore)
	}

	return zap.New(core).Sugar()
}
