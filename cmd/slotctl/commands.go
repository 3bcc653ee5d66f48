package main

import (
	"creatorclub/pkg/model"

	"github.com/spf13/cobra"
)

func (c *cli) lockCmd() *cobra.Command {
	var hold int
	cmd := &cobra.Command{
		Use:   "lock <resource_id> <date_key> <slot_index>",
		Short: "Hold one slot for the current holder",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			result, err := c.slots.Lock(cmd.Context(), model.LockRequest{
				ResourceID:  args[0],
				DateKey:     args[1],
				SlotIndex:   &index,
				HoldMinutes: hold,
			})
			if err != nil {
				return err
			}
			return c.print(result)
		},
	}
	cmd.Flags().IntVar(&hold, "hold", 0, "hold duration in minutes (server default when 0)")
	return cmd
}

func (c *cli) lockRangeCmd() *cobra.Command {
	var hold int
	cmd := &cobra.Command{
		Use:   "lock-range <resource_id> <date_key> <slot_index>...",
		Short: "Hold several slots at once, all or nothing",
		Long:  "Indices may be given as separate arguments or comma separated.",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseIndices(args[2:])
			if err != nil {
				return err
			}
			result, err := c.slots.LockRange(cmd.Context(), model.LockRangeRequest{
				ResourceID:  args[0],
				DateKey:     args[1],
				SlotIndices: indices,
				HoldMinutes: hold,
			})
			if err != nil {
				return err
			}
			return c.print(result)
		},
	}
	cmd.Flags().IntVar(&hold, "hold", 0, "hold duration in minutes (server default when 0)")
	return cmd
}

func (c *cli) releaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release <resource_id> <date_key> <slot_index>...",
		Short: "Give back slots held by the current holder",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseIndices(args[2:])
			if err != nil {
				return err
			}
			if err := c.slots.Release(cmd.Context(), model.ReleaseRequest{
				ResourceID:  args[0],
				DateKey:     args[1],
				SlotIndices: indices,
			}); err != nil {
				return err
			}
			return c.print(model.ConfirmResult{OK: true})
		},
	}
}

func (c *cli) confirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <resource_id> <date_key> <slot_index>...",
		Short: "Book locked slots, as the payment collaborator does after a charge clears",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseIndices(args[2:])
			if err != nil {
				return err
			}
			if len(indices) == 1 {
				err = c.slots.Confirm(cmd.Context(), model.ConfirmRequest{
					ResourceID: args[0],
					DateKey:    args[1],
					SlotIndex:  &indices[0],
				})
			} else {
				err = c.slots.ConfirmRange(cmd.Context(), model.ConfirmRangeRequest{
					ResourceID:  args[0],
					DateKey:     args[1],
					SlotIndices: indices,
				})
			}
			if err != nil {
				return err
			}
			return c.print(model.ConfirmResult{OK: true})
		},
	}
}

func (c *cli) dayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "day <resource_id> <date_key>",
		Short: "Show every stored slot of a resource day (requires an admin role)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slots, err := c.slots.Day(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return c.print(slots)
		},
	}
}
