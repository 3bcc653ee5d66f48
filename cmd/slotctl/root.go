package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"creatorclub/pkg/client"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix     = "SLOTCTL"
	defaultServer = "http://localhost:8080"
)

// cli carries the state shared by every subcommand.
type cli struct {
	v       *viper.Viper
	cfgFile string
	out     io.Writer
	slots   *client.SlotsClient
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), out: out}

	rootCmd := &cobra.Command{
		Use:   "slotctl",
		Short: "Operate slot locks and bookings through the slots service",
		Long: `slotctl calls the slots HTTP service: lock or release slots for a holder,
confirm bookings the way the payment collaborator does, and inspect a resource day.

Settings come from flags, SLOTCTL_* environment variables or slotctl.yaml.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return c.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file path (default: ./slotctl.yaml)")
	flags.String("server", defaultServer, "slots service base URL")
	flags.String("token", "", "bearer token for the holder")
	flags.String("holder", "", "holder id sent as X-Holder-ID when the server trusts gateway headers")
	flags.String("payment-secret", "", "secret used to sign confirmation requests")

	rootCmd.AddCommand(
		c.lockCmd(),
		c.lockRangeCmd(),
		c.releaseCmd(),
		c.confirmCmd(),
		c.dayCmd(),
	)
	return rootCmd
}

func (c *cli) init(cmd *cobra.Command) error {
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		c.v.SetConfigName("slotctl")
		c.v.SetConfigType("yaml")
		c.v.AddConfigPath(".")
		if home, _ := os.UserHomeDir(); home != "" {
			c.v.AddConfigPath(home + "/.config/slotctl")
		}
	}
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The config file is optional unless named explicitly.
		if c.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	c.slots = client.NewSlotsClient(c.v.GetString("server")).
		WithToken(c.v.GetString("token")).
		WithHolderID(c.v.GetString("holder")).
		WithPaymentSecret(c.v.GetString("payment-secret"))
	return nil
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("slot index must be a non-negative integer, got %q", arg)
	}
	return index, nil
}

func parseIndices(args []string) ([]int, error) {
	indices := make([]int, 0, len(args))
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			index, err := parseIndex(part)
			if err != nil {
				return nil, err
			}
			indices = append(indices, index)
		}
	}
	if len(indices) == 0 {
		return nil, errors.New("at least one slot index is required")
	}
	return indices, nil
}
