package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kmuriithi/vehicleguard/internal/config"
	"github.com/kmuriithi/vehicleguard/internal/facerec"
	"github.com/kmuriithi/vehicleguard/internal/logging"
	"github.com/kmuriithi/vehicleguard/internal/store"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <user-id> [image]",
	Short: "Enroll a driver's face from a photo",
	Long: `Enroll a driver by extracting a face encoding from a photo and storing
it for the given user. With --dir, every image in the directory is
scanned and the first one with a detectable face is used.

Enrollment replaces the user's previous encoding whole. If no face is
found the previous enrollment is left untouched.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("dir", "", "Directory of candidate photos instead of a single image")
	enrollCmd.Flags().String("name", "", "Driver name (required for new users)")
	enrollCmd.Flags().String("phone", "", "Driver phone number")
	enrollCmd.Flags().Int64("vehicle", 0, "Vehicle the driver is authorized for")
	enrollCmd.Flags().Bool("authorized", true, "Whether the driver may start the engine")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	logger, err := logging.New()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		return fmt.Errorf("invalid user id %q", args[0])
	}

	dir := mustGetString(cmd, "dir")
	if dir == "" && len(args) < 2 {
		return errors.New("provide an image path or --dir")
	}

	ctx := context.Background()
	cfg := config.Load()
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	matcher := buildMatcher(cfg, logger)

	var enc facerec.Encoding
	var source string
	if dir != "" {
		enc, source, err = encodeFromDir(matcher, dir)
	} else {
		source = args[1]
		enc, err = encodeFromFile(matcher, source)
	}
	if err != nil {
		return err
	}

	if err := upsertEnrollment(ctx, st, cmd, userID, enc); err != nil {
		return err
	}

	fmt.Printf("Enrolled user %d from %s (%d values)\n", userID, source, len(enc))
	return nil
}

// encodeFromFile extracts the dominant face encoding from one image.
func encodeFromFile(matcher *facerec.Matcher, path string) (facerec.Encoding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	enc, _, err := matcher.DetectAndEncode(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return enc, nil
}

// encodeFromDir scans a directory of photos and returns the encoding from
// the first one with a detectable face.
func encodeFromDir(matcher *facerec.Matcher, dir string) (facerec.Encoding, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", dir, err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			candidates = append(candidates, filepath.Join(dir, e.Name()))
		}
	}
	if len(candidates) == 0 {
		return nil, "", fmt.Errorf("no images found in %s", dir)
	}
	sort.Strings(candidates)

	bar := progressbar.NewOptions(len(candidates),
		progressbar.OptionSetDescription("Scanning photos"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	for _, path := range candidates {
		enc, err := encodeFromFile(matcher, path)
		_ = bar.Add(1)
		if err == nil {
			fmt.Println()
			return enc, path, nil
		}
	}
	return nil, "", fmt.Errorf("no detectable face in any of %d images", len(candidates))
}

// upsertEnrollment stores the encoding and creates or updates the user
// record from the flags.
func upsertEnrollment(ctx context.Context, st store.Store, cmd *cobra.Command, userID int64, enc facerec.Encoding) error {
	user, err := st.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("looking up user %d: %w", userID, err)
		}
		user = store.User{ID: userID}
		if mustGetString(cmd, "name") == "" {
			return fmt.Errorf("user %d does not exist, --name is required", userID)
		}
	}
	if name := mustGetString(cmd, "name"); name != "" {
		user.Name = name
	}
	if phone := mustGetString(cmd, "phone"); phone != "" {
		user.Phone = phone
	}
	if vehicleID := mustGetInt64(cmd, "vehicle"); vehicleID > 0 {
		user.VehicleID = vehicleID
	}
	user.AuthorizedDriver = mustGetBool(cmd, "authorized")

	if err := st.PutUser(ctx, user); err != nil {
		return fmt.Errorf("storing user: %w", err)
	}

	blob, err := enc.MarshalBinary()
	if err != nil {
		return fmt.Errorf("serializing encoding: %w", err)
	}
	if err := st.PutEncoding(ctx, userID, blob); err != nil {
		return fmt.Errorf("storing encoding: %w", err)
	}
	return nil
}
