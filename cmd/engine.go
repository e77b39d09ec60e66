package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kmuriithi/vehicleguard/internal/config"
	"github.com/kmuriithi/vehicleguard/internal/logging"
)

var engineCmd = &cobra.Command{
	Use:   "engine <vehicle-id>",
	Short: "Remotely enable or immobilize the engine",
	Long: `Send a remote engine command. Exactly one of --enable or --disable is
required. The actor name is recorded in the vehicle's event trail and
included in the owner's status SMS.`,
	Args: cobra.ExactArgs(1),
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(engineCmd)

	engineCmd.Flags().Bool("enable", false, "Enable the engine")
	engineCmd.Flags().Bool("disable", false, "Immobilize the engine")
	engineCmd.Flags().String("actor", "", "Who is issuing the command (required)")
}

func runEngine(cmd *cobra.Command, args []string) error {
	logger, err := logging.New()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	vehicleID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || vehicleID <= 0 {
		return fmt.Errorf("invalid vehicle id %q", args[0])
	}

	enable := mustGetBool(cmd, "enable")
	disable := mustGetBool(cmd, "disable")
	if enable == disable {
		return errors.New("exactly one of --enable or --disable is required")
	}
	actor := mustGetString(cmd, "actor")
	if actor == "" {
		return errors.New("--actor is required")
	}

	ctx := context.Background()
	cfg := config.Load()
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	res := buildCoordinator(cfg, st, logger).SetEngine(ctx, vehicleID, enable, actor, nil)
	if !res.Success {
		return fmt.Errorf("engine command failed: %s", res.Message)
	}
	fmt.Println(res.Message)
	return nil
}
