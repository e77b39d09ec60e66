package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kmuriithi/vehicleguard/internal/auth"
	"github.com/kmuriithi/vehicleguard/internal/config"
	"github.com/kmuriithi/vehicleguard/internal/logging"
)

var authenticateCmd = &cobra.Command{
	Use:   "authenticate <vehicle-id>",
	Short: "Run one authentication attempt",
	Long: `Run a single engine-authorization attempt for a vehicle. With --image
the frame is read from a file; otherwise the on-board camera is used.
The result is printed as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthenticate,
}

func init() {
	rootCmd.AddCommand(authenticateCmd)

	authenticateCmd.Flags().String("image", "", "Frame to authenticate instead of capturing from the camera")
}

func runAuthenticate(cmd *cobra.Command, args []string) error {
	logger, err := logging.New()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	vehicleID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || vehicleID <= 0 {
		return fmt.Errorf("invalid vehicle id %q", args[0])
	}

	ctx := context.Background()
	cfg := config.Load()
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	req := auth.Request{VehicleID: vehicleID}
	if path := mustGetString(cmd, "image"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		img, _, err := image.Decode(f)
		f.Close() //nolint:errcheck,gosec
		if err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
		req.Image = img
	}

	res := buildCoordinator(cfg, st, logger).Authenticate(ctx, req)

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))

	if !res.Success {
		os.Exit(1)
	}
	return nil
}
