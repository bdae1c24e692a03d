package cli

import (
	"github.com/spf13/cobra"
)

// NewRoomsCommand creates the rooms command group.
func NewRoomsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Inspect the room catalog",
	}
	cmd.AddCommand(newRoomsListCommand(rootOpts))
	cmd.AddCommand(newRoomsShowCommand(rootOpts))
	return cmd
}

func newRoomsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			rooms, err := app.rooms.ListRooms(cmd.Context())
			if err != nil {
				return err
			}
			if len(rooms) == 0 {
				cmd.Println("no rooms")
				return nil
			}
			for _, room := range rooms {
				cmd.Printf("%s\t%s\t%s\tcapacity %d\t%s\n",
					room.ID, room.Name, room.Building, room.Capacity, room.Category)
			}
			return nil
		},
	}
}

func newRoomsShowCommand(rootOpts *RootOptions) *cobra.Command {
	var building string

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show one room by name and building",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			room, err := app.rooms.GetRoomByName(cmd.Context(), args[0], building)
			if err != nil {
				return err
			}
			cmd.Printf("%s\t%s\t%s\tcapacity %d\t%s\n",
				room.ID, room.Name, room.Building, room.Capacity, room.Category)
			return nil
		},
	}

	cmd.Flags().StringVar(&building, "building", "", "building the room belongs to")
	_ = cmd.MarkFlagRequired("building")
	return cmd
}
