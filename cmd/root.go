package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vehicleguard",
	Short: "Facial-recognition anti-theft unit for vehicles",
	Long: `VehicleGuard is the on-vehicle service of a facial-recognition
anti-theft system. It authorizes engine start by matching the driver's
face against enrolled drivers, drives the engine relay, records an audit
trail and alerts the owner over SMS when an unauthorized person tries
to start the vehicle.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
