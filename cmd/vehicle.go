package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kmuriithi/vehicleguard/internal/config"
	"github.com/kmuriithi/vehicleguard/internal/logging"
	"github.com/kmuriithi/vehicleguard/internal/store"
)

var vehicleCmd = &cobra.Command{
	Use:   "vehicle",
	Short: "Manage vehicle records",
}

var vehicleAddCmd = &cobra.Command{
	Use:   "add <vehicle-id>",
	Short: "Register or update a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE:  runVehicleAdd,
}

func init() {
	rootCmd.AddCommand(vehicleCmd)
	vehicleCmd.AddCommand(vehicleAddCmd)

	vehicleAddCmd.Flags().String("registration", "", "Registration number (required)")
	vehicleAddCmd.Flags().String("owner", "", "Owner name")
	vehicleAddCmd.Flags().String("phone", "", "Owner phone for SMS alerts")
}

func runVehicleAdd(cmd *cobra.Command, args []string) error {
	logger, err := logging.New()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	vehicleID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || vehicleID <= 0 {
		return fmt.Errorf("invalid vehicle id %q", args[0])
	}
	registration := mustGetString(cmd, "registration")
	if registration == "" {
		return fmt.Errorf("--registration is required")
	}

	ctx := context.Background()
	cfg := config.Load()
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	v := store.Vehicle{
		ID:                 vehicleID,
		RegistrationNumber: registration,
		OwnerName:          mustGetString(cmd, "owner"),
		OwnerPhone:         mustGetString(cmd, "phone"),
		Status:             "active",
	}
	if err := st.PutVehicle(ctx, v); err != nil {
		return fmt.Errorf("storing vehicle: %w", err)
	}

	fmt.Printf("Vehicle %d (%s) registered\n", vehicleID, registration)
	return nil
}
