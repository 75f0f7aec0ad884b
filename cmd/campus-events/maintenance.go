package main

import (
	"campus-events-backend/cmd/campus-events/apis"
	"campus-events-backend/cmd/campus-events/model"
	"campus-events-backend/cmd/campus-events/repository"
	"context"
	"fmt"

	"github.com/goforj/godump"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the database schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(repository.MigrateUp), string(repository.MigrateDown)},
	RunE:      runMigrate,
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired notifications",
	Args:  cobra.NoArgs,
	RunE:  runCleanup,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the first admin account and the default categories",
	Long: `Create an admin account and the default event categories. Records
that already exist are left untouched, so seeding can be repeated.

Example:
  campus-events seed --admin-password 'Secret123'
  campus-events seed --admin-email root@campus.edu --admin-password 'Secret123' --dump`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var seedOpts struct {
	adminEmail    string
	adminPassword string
	dump          bool
}

var defaultCategories = []model.CategoryRequest{
	{Name: "Academic", Description: "Lectures, seminars and study sessions", Color: "#1e88e5", Icon: "school", SortOrder: 1},
	{Name: "Career", Description: "Job fairs, recruiting talks and workshops", Color: "#43a047", Icon: "work", SortOrder: 2},
	{Name: "Cultural", Description: "Performances, exhibitions and festivals", Color: "#8e24aa", Icon: "theater_comedy", SortOrder: 3},
	{Name: "Sports", Description: "Matches, tournaments and fitness classes", Color: "#f4511e", Icon: "sports_soccer", SortOrder: 4},
	{Name: "Social", Description: "Meetups, parties and club gatherings", Color: "#fdd835", Icon: "groups", SortOrder: 5},
}

func init() {
	rootCmd.AddCommand(migrateCmd, cleanupCmd, seedCmd)

	seedCmd.Flags().StringVar(&seedOpts.adminEmail, "admin-email", "admin@campus.local", "email of the admin account")
	seedCmd.Flags().StringVar(&seedOpts.adminPassword, "admin-password", "", "password of the admin account")
	seedCmd.Flags().BoolVar(&seedOpts.dump, "dump", false, "dump the seeded records")
	_ = seedCmd.MarkFlagRequired("admin-password")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, logger, db, err := bootstrap()
	if err != nil {
		return err
	}

	direction := repository.MigrateDirection(args[0])
	version, err := repository.Migrate(cmd.Context(), db, direction)
	if err != nil {
		return err
	}

	logger.Infoj(log.JSON{
		"message":   "migrations applied",
		"direction": direction,
		"version":   version,
	})
	return nil
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}

	a, err := newApp(cfg, db, logger)
	if err != nil {
		return err
	}

	deleted, err := a.notifications.Cleanup(cmd.Context())
	if err != nil {
		return err
	}

	logger.Infoj(log.JSON{
		"message": "expired notifications deleted",
		"count":   deleted,
	})
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}

	a, err := newApp(cfg, db, logger)
	if err != nil {
		return err
	}

	admin, err := seedAdmin(cmd.Context(), a, repository.NewUserRepo(db))
	if err != nil {
		return err
	}

	actor := model.Actor{ID: admin.ID, Role: admin.Role}
	var created []model.Category
	for _, req := range defaultCategories {
		category, err := a.categories.Create(cmd.Context(), actor, req)
		if model.IsKind(err, model.KindConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", req.Name, err)
		}
		created = append(created, category)
	}

	logger.Infoj(log.JSON{
		"message":    "seed finished",
		"admin_id":   admin.ID,
		"categories": len(created),
	})

	if seedOpts.dump {
		godump.Dump(admin, created)
	}
	return nil
}

type userLookup interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
}

// seedAdmin creates the admin account, or returns the existing one with
// the same email.
func seedAdmin(ctx context.Context, a *app, users userLookup) (model.User, error) {
	req := model.CreateUserRequest{
		RegisterUserRequest: model.RegisterUserRequest{
			FirstName: "Campus",
			LastName:  "Admin",
			Email:     seedOpts.adminEmail,
			Password:  seedOpts.adminPassword,
		},
		Role: model.RoleAdmin,
	}
	if err := apis.NewValidator().Validate(req); err != nil {
		return model.User{}, fmt.Errorf("invalid admin account: %w", err)
	}

	admin, err := a.users.Create(ctx, req)
	if model.IsKind(err, model.KindConflict) {
		return users.GetUserByEmail(ctx, req.Email)
	}
	return admin, err
}
