package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/BearBump/SwiftDrop/internal/services/users"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRootCmd(open openBackendFunc) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "swiftdropctl",
		Short: "SwiftDrop operator CLI",
		Long: `swiftdropctl runs operator tasks against the SwiftDrop database.

Examples:
  # Create a courier account
  swiftdropctl --config config.yaml user create --name "Ivan" --email ivan@swiftdrop.io --password s3cret! --role delivery

  # Freeze a parcel
  swiftdropctl --config config.yaml parcel block 2f1c...`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("configPath"), "Path to config.yaml")

	withBackend := func(cmd *cobra.Command, fn func(b backend) (any, error)) error {
		b, closeFn, err := open(configPath)
		if err != nil {
			return err
		}
		if closeFn != nil {
			defer closeFn()
		}
		out, err := fn(b)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	root.AddCommand(newUserCmd(withBackend), newParcelCmd(withBackend))
	return root
}

type runner func(cmd *cobra.Command, fn func(b backend) (any, error)) error

func newUserCmd(run runner) *cobra.Command {
	userCmd := &cobra.Command{Use: "user", Short: "Manage user accounts"}

	var req users.RegisterRequest
	var role, phone, address string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user with any role (admin and delivery accounts are created only here)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Role = models.Role(role)
			if phone != "" {
				req.Phone = &phone
			}
			if address != "" {
				req.Address = &address
			}
			return run(cmd, func(b backend) (any, error) {
				return b.CreateUser(cmd.Context(), req)
			})
		},
	}
	create.Flags().StringVar(&req.Name, "name", "", "Full name")
	create.Flags().StringVar(&req.Email, "email", "", "Email")
	create.Flags().StringVar(&req.Password, "password", "", "Password")
	create.Flags().StringVar(&role, "role", string(models.RoleDelivery), "Role: admin|delivery|sender|receiver")
	create.Flags().StringVar(&phone, "phone", "", "Phone")
	create.Flags().StringVar(&address, "address", "", "Address")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	userCmd.AddCommand(create,
		blockCmd("block", "Block a user", true, run, func(b backend, cmd *cobra.Command, id uuid.UUID, blocked bool) (any, error) {
			return b.SetUserBlocked(cmd.Context(), id, blocked)
		}),
		blockCmd("unblock", "Unblock a user", false, run, func(b backend, cmd *cobra.Command, id uuid.UUID, blocked bool) (any, error) {
			return b.SetUserBlocked(cmd.Context(), id, blocked)
		}),
	)
	return userCmd
}

func newParcelCmd(run runner) *cobra.Command {
	parcelCmd := &cobra.Command{Use: "parcel", Short: "Inspect and freeze parcels"}

	track := &cobra.Command{
		Use:   "track <trackingId>",
		Short: "Show a parcel by tracking id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(b backend) (any, error) {
				return b.Track(cmd.Context(), args[0])
			})
		},
	}

	setBlocked := func(b backend, cmd *cobra.Command, id uuid.UUID, blocked bool) (any, error) {
		return b.SetParcelBlocked(cmd.Context(), id, blocked)
	}
	parcelCmd.AddCommand(track,
		blockCmd("block", "Block a parcel; blocked parcels reject status changes", true, run, setBlocked),
		blockCmd("unblock", "Unblock a parcel", false, run, setBlocked),
	)
	return parcelCmd
}

func blockCmd(use, short string, blocked bool, run runner, fn func(b backend, cmd *cobra.Command, id uuid.UUID, blocked bool) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			return run(cmd, func(b backend) (any, error) {
				return fn(b, cmd, id, blocked)
			})
		},
	}
}
