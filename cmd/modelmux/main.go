// Package main is the entry point for modelmux.
package main

import (
	"context"
	"os"

	"charm.land/fang/v2"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "modelmux.yaml"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "modelmux",
	Short: "Provider routing and health monitoring for AI model endpoints",
	Long: `modelmux routes model requests across an organization's configured
providers using routing rules, circuit breakers, and health-weighted load
balancing, and continuously monitors provider health.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file path (default: ./"+defaultConfigFile+" or ~/.config/modelmux/"+defaultConfigFile+")")
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}
