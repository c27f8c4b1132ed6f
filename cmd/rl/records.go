package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rosterline/internal/domain"
	"rosterline/internal/engine"
	"rosterline/internal/kinds"
	"rosterline/internal/validation"
)

func entityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Manage entities",
		Long:  "People, organizations, locations and resources that take part in events.",
	}
	cmd.AddCommand(entityCreateCmd())
	cmd.AddCommand(entityShowCmd())
	cmd.AddCommand(entityUpdateCmd())
	cmd.AddCommand(entityDeleteCmd())
	cmd.AddCommand(entityListCmd())
	cmd.AddCommand(entityPreviewCmd())
	return cmd
}

func entityCreateCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:     "create KIND",
		Short:   "Create an entity",
		Example: "  rl entity create person --set name=Ada --set email=ada@example.com",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseSets(sets)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				en, err := e.CreateEntity(ctx, args[0], attrs)
				if err != nil {
					return err
				}
				return printEntity(en)
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute key=value (repeatable)")
	return cmd
}

func entityShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				en, err := e.GetEntity(ctx, args[0])
				if err != nil {
					return err
				}
				return printEntity(en)
			})
		},
	}
}

func entityUpdateCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseSets(sets)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				en, err := e.UpdateEntity(ctx, args[0], attrs)
				if err != nil {
					return err
				}
				return printEntity(en)
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute key=value (repeatable)")
	return cmd
}

func entityDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an entity without participations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteEntity(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
}

func entityListCmd() *cobra.Command {
	var kind string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListEntities(ctx, kind, limit)
				if err != nil {
					return err
				}
				return printEntities(items)
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind")
	cmd.Flags().IntVar(&limit, "limit", 0, "max rows (0 for all)")
	return cmd
}

func entityPreviewCmd() *cobra.Command {
	var sets []string
	var id, mode string
	cmd := &cobra.Command{
		Use:   "preview [KIND]",
		Short: "Validate entity attributes without saving",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseSets(sets)
			if err != nil {
				return err
			}
			m, err := validation.ParseMode(mode)
			if err != nil {
				return err
			}
			var kind string
			if len(args) == 1 {
				kind = args[0]
			}
			if kind == "" && id == "" {
				return fmt.Errorf("KIND or --id required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cs, err := e.EntityChangeset(ctx, kind, id, attrs, m)
				if err != nil {
					return err
				}
				return printChangeset(cs, kinds.FlattenEntity(cs.Record))
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute key=value (repeatable)")
	cmd.Flags().StringVar(&id, "id", "", "existing entity to preview an update of")
	cmd.Flags().StringVar(&mode, "mode", "validate", "draft or validate")
	return cmd
}

func kindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kind",
		Short: "Manage event kinds",
		Long:  "Event kinds classify events. shift, employment and schedule carry extra rules; any other kind uses the generic rules.",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List event kinds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListEventKinds(ctx)
				if err != nil {
					return err
				}
				return printEventKinds(items)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Register an event kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				k, err := e.CreateEventKind(ctx, args[0])
				if err != nil {
					return err
				}
				return printEventKinds([]domain.EventKind{k})
			})
		},
	})
	return cmd
}

func eventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage events",
		Long:  "Events are time-bound things that happen: shifts, employments, schedules and more.",
	}
	cmd.AddCommand(eventCreateCmd())
	cmd.AddCommand(eventShowCmd())
	cmd.AddCommand(eventUpdateCmd())
	cmd.AddCommand(eventDeleteCmd())
	cmd.AddCommand(eventListCmd())
	cmd.AddCommand(eventTreeCmd())
	cmd.AddCommand(eventPreviewCmd())
	return cmd
}

func eventCreateCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:     "create KIND",
		Short:   "Create an event",
		Example: "  rl event create shift --set start_time=2025-03-01T08:00 --set end_time=2025-03-01T16:00 --set location=Dock",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseSets(sets)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ev, err := e.CreateEvent(ctx, args[0], attrs)
				if err != nil {
					return err
				}
				return printEvent(ev)
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute key=value (repeatable)")
	return cmd
}

func eventShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ev, err := e.GetEvent(ctx, args[0])
				if err != nil {
					return err
				}
				return printEvent(ev)
			})
		},
	}
}

func eventUpdateCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update an event",
		Long:  "Changing the window or status re-checks every participation on the event for overlaps.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseSets(sets)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ev, err := e.UpdateEvent(ctx, args[0], attrs)
				if err != nil {
					return err
				}
				return printEvent(ev)
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute key=value (repeatable)")
	return cmd
}

func eventDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an event without children or participations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteEvent(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
}

func eventListCmd() *cobra.Command {
	var opts engine.EventListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListEvents(ctx, opts)
				if err != nil {
					return err
				}
				return printEvents(items)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter by event kind")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&opts.ParentID, "parent", "", "filter by parent event")
	cmd.Flags().BoolVar(&opts.RootsOnly, "roots", false, "only events without a parent")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "max rows (0 for all)")
	return cmd
}

func eventTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree ID",
		Short: "Show an event with its nested events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				node, err := e.EventTree(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(node)
				}
				printEventTree(node, "", true, true)
				return nil
			})
		},
	}
}

func eventPreviewCmd() *cobra.Command {
	var sets []string
	var id, mode string
	cmd := &cobra.Command{
		Use:   "preview [KIND]",
		Short: "Validate event attributes without saving",
		Long: `Runs the event rules and prints the resulting record and errors. Nothing is saved.
In draft mode only fields are placed and defaults applied; validate mode runs every rule.
Pass --id to preview an update of an existing event instead of a new one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseSets(sets)
			if err != nil {
				return err
			}
			m, err := validation.ParseMode(mode)
			if err != nil {
				return err
			}
			var kind string
			if len(args) == 1 {
				kind = args[0]
			}
			if kind == "" && id == "" {
				return fmt.Errorf("KIND or --id required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cs, err := e.EventChangeset(ctx, kind, id, attrs, m)
				if err != nil {
					return err
				}
				return printChangeset(cs, kinds.FlattenEvent(cs.Record))
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute key=value (repeatable)")
	cmd.Flags().StringVar(&id, "id", "", "existing event to preview an update of")
	cmd.Flags().StringVar(&mode, "mode", "validate", "draft or validate")
	return cmd
}

func participationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "participation",
		Aliases: []string{"part"},
		Short:   "Manage participations",
		Long:    "A participation binds an entity to an event under a participation type (worker, supervisor, ...).",
	}
	cmd.AddCommand(participationAddCmd())
	cmd.AddCommand(participationListCmd())
	cmd.AddCommand(participationUpdateCmd())
	cmd.AddCommand(participationRemoveCmd())
	return cmd
}

func participationAddCmd() *cobra.Command {
	var entityID, eventID, ptype string
	var sets []string
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add an entity to an event",
		Example: "  rl participation add --entity <id> --event <id> --type worker --set role=lead",
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseSets(sets)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreateParticipation(ctx, entityID, eventID, ptype, attrs)
				if err != nil {
					return err
				}
				return printParticipation(p)
			})
		},
	}
	cmd.Flags().StringVar(&entityID, "entity", "", "participant entity id")
	cmd.Flags().StringVar(&eventID, "event", "", "event id")
	cmd.Flags().StringVar(&ptype, "type", "", "participation type")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute key=value (repeatable)")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("event")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func participationListCmd() *cobra.Command {
	var entityID, eventID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List participations of an entity or an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			if entityID == "" && eventID == "" {
				return fmt.Errorf("--entity or --event required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListParticipations(ctx, entityID, eventID)
				if err != nil {
					return err
				}
				return printParticipations(items)
			})
		},
	}
	cmd.Flags().StringVar(&entityID, "entity", "", "participant entity id")
	cmd.Flags().StringVar(&eventID, "event", "", "event id")
	return cmd
}

func participationUpdateCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update role, window or notes of a participation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseSets(sets)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.UpdateParticipation(ctx, args[0], attrs)
				if err != nil {
					return err
				}
				return printParticipation(p)
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute key=value (repeatable)")
	return cmd
}

func participationRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a participation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteParticipation(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("removed", args[0])
				return nil
			})
		},
	}
}
