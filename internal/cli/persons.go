package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/phonebook/internal/scenario"
	"github.com/mesh-intelligence/phonebook/pkg/types"
)

// personView is the JSON shape of a person in --json output.
type personView struct {
	ID         int64       `json:"id"`
	Surname    string      `json:"surname"`
	FirstName  string      `json:"first_name"`
	Patronymic string      `json:"patronymic,omitempty"`
	BirthDate  string      `json:"birth_date"`
	Phones     []phoneView `json:"phones"`
}

type phoneView struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
}

func toView(p *types.Person) personView {
	v := personView{
		ID:         p.ID,
		Surname:    p.Surname,
		FirstName:  p.FirstName,
		Patronymic: p.Patronymic,
		BirthDate:  p.BirthDate.Format(types.DateLayout),
		Phones:     make([]phoneView, 0, len(p.Phones)),
	}
	for _, ph := range p.Phones {
		v.Phones = append(v.Phones, phoneView{ID: ph.ID, Number: ph.Number})
	}
	return v
}

func printPersons(out io.Writer, jsonMode bool, persons []*types.Person) error {
	if jsonMode {
		views := make([]personView, 0, len(persons))
		for _, p := range persons {
			views = append(views, toView(p))
		}
		return writeJSON(out, views)
	}
	for _, p := range persons {
		fmt.Fprintln(out, p)
	}
	return nil
}

func printPerson(out io.Writer, jsonMode bool, p *types.Person) error {
	if jsonMode {
		return writeJSON(out, toView(p))
	}
	fmt.Fprintln(out, p)
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return sysError(fmt.Errorf("encode json: %w", err))
	}
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, userError(fmt.Errorf("invalid person id %q", arg))
	}
	return id, nil
}

func newDemoCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Seed, list, update and delete sample persons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, flags, func(store types.Store) error {
				if err := scenario.Run(cmd.Context(), store, cmd.OutOrStdout()); err != nil {
					return storeError(err)
				}
				return nil
			})
		},
	}
}

func newListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every person with their phones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, flags, func(store types.Store) error {
				persons, err := store.GetAllPersons(cmd.Context())
				if err != nil {
					return storeError(err)
				}
				return printPersons(cmd.OutOrStdout(), flags.jsonMode, persons)
			})
		},
	}
}

func newGetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, flags, func(store types.Store) error {
				p, err := store.GetPersonByID(cmd.Context(), id)
				if err != nil {
					return storeError(err)
				}
				return printPerson(cmd.OutOrStdout(), flags.jsonMode, p)
			})
		},
	}
}

func newAddCmd(flags *rootFlags) *cobra.Command {
	var (
		surname, firstName, patronymic, birthDate string
		phones                                    []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a person with optional phones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			born, err := types.ParseDate(birthDate)
			if err != nil {
				return userError(fmt.Errorf("invalid --birth-date: %w", err))
			}
			p := types.NewPerson(surname, firstName, patronymic, born)
			for _, n := range phones {
				p.AddPhone(types.NewPhone(n))
			}
			if err := p.Validate(); err != nil {
				return userError(err)
			}
			return withStore(cmd, flags, func(store types.Store) error {
				if err := store.AddPerson(cmd.Context(), p); err != nil {
					return storeError(err)
				}
				return printPerson(cmd.OutOrStdout(), flags.jsonMode, p)
			})
		},
	}
	cmd.Flags().StringVar(&surname, "surname", "", "surname (required)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name (required)")
	cmd.Flags().StringVar(&patronymic, "patronymic", "", "patronymic")
	cmd.Flags().StringVar(&birthDate, "birth-date", "", "birth date as YYYY-MM-DD (required)")
	cmd.Flags().StringArrayVar(&phones, "phone", nil, "phone number; repeat for more than one")
	_ = cmd.MarkFlagRequired("surname")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("birth-date")
	return cmd
}

func newAddPhoneCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add-phone <id> <number>",
		Short: "Add a phone number to an existing person",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, flags, func(store types.Store) error {
				p, err := store.GetPersonByID(cmd.Context(), id)
				if err != nil {
					return storeError(err)
				}
				p.AddPhone(types.NewPhone(args[1]))
				updated, err := store.UpdatePerson(cmd.Context(), p)
				if err != nil {
					return storeError(err)
				}
				return printPerson(cmd.OutOrStdout(), flags.jsonMode, updated)
			})
		},
	}
}

func newDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a person and all of their phones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, flags, func(store types.Store) error {
				if err := store.DeletePerson(cmd.Context(), &types.Person{ID: id}); err != nil {
					return storeError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted person %d\n", id)
				return nil
			})
		},
	}
}

func newPurgeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, flags, func(store types.Store) error {
				n, err := scenario.Purge(cmd.Context(), store)
				if err != nil {
					return storeError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d persons\n", n)
				return nil
			})
		},
	}
}
