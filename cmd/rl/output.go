package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/viper"

	"rosterline/internal/domain"
	"rosterline/internal/engine"
	"rosterline/internal/kinds"
	"rosterline/internal/temporal"
	"rosterline/internal/validation"
)

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	return tw
}

func printEntities(items []domain.Entity) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := newTable()
	tw.AppendHeader(table.Row{"ID", "Kind", "Name", "Updated"})
	for _, en := range items {
		fields := kinds.FlattenEntity(en)
		tw.AppendRow(table.Row{en.ID, en.Kind, fields["name"], en.UpdatedAt})
	}
	tw.Render()
	return nil
}

func printEntity(en domain.Entity) error {
	if viper.GetBool("json") {
		return printJSON(en)
	}
	tw := newTable()
	tw.AppendRow(table.Row{"id", en.ID})
	tw.AppendRow(table.Row{"kind", en.Kind})
	appendFields(tw, kinds.FlattenEntity(en))
	tw.AppendRow(table.Row{"created_at", en.CreatedAt})
	tw.AppendRow(table.Row{"updated_at", en.UpdatedAt})
	tw.Render()
	return nil
}

func printEvents(items []domain.Event) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := newTable()
	tw.AppendHeader(table.Row{"ID", "Kind", "Status", "Start", "End", "Parent"})
	for _, ev := range items {
		tw.AppendRow(table.Row{ev.ID, ev.Kind, ev.Status, temporal.FormatPtr(ev.StartTime), temporal.FormatPtr(ev.EndTime), deref(ev.ParentID)})
	}
	tw.Render()
	return nil
}

func printEvent(ev domain.Event) error {
	if viper.GetBool("json") {
		return printJSON(ev)
	}
	tw := newTable()
	tw.AppendRow(table.Row{"id", ev.ID})
	tw.AppendRow(table.Row{"kind", ev.Kind})
	tw.AppendRow(table.Row{"status", ev.Status})
	tw.AppendRow(table.Row{"start_time", temporal.FormatPtr(ev.StartTime)})
	tw.AppendRow(table.Row{"end_time", temporal.FormatPtr(ev.EndTime)})
	if ev.ParentID != nil {
		tw.AppendRow(table.Row{"parent_id", *ev.ParentID})
	}
	appendFields(tw, kinds.FlattenEvent(ev))
	tw.AppendRow(table.Row{"updated_at", ev.UpdatedAt})
	tw.Render()
	return nil
}

func printParticipations(items []domain.Participation) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := newTable()
	tw.AppendHeader(table.Row{"ID", "Participant", "Event", "Type", "Role", "Start", "End"})
	for _, p := range items {
		tw.AppendRow(table.Row{p.ID, p.ParticipantID, p.EventID, p.ParticipationType, p.Role, temporal.FormatPtr(p.StartTime), temporal.FormatPtr(p.EndTime)})
	}
	tw.Render()
	return nil
}

func printParticipation(p domain.Participation) error {
	return printParticipations([]domain.Participation{p})
}

func printEventKinds(items []domain.EventKind) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := newTable()
	tw.AppendHeader(table.Row{"ID", "Name", "Contract", "Created"})
	for _, k := range items {
		tw.AppendRow(table.Row{k.ID, k.Name, kinds.ResolveEvent(k.Name).Name(), k.CreatedAt})
	}
	tw.Render()
	return nil
}

func printJournal(items []domain.JournalEntry) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := newTable()
	tw.AppendHeader(table.Row{"#", "Time", "Type", "Record", "Payload"})
	for _, j := range items {
		tw.AppendRow(table.Row{j.ID, j.TS, j.Type, j.RecordKind + "/" + j.RecordID, j.Payload})
	}
	tw.Render()
	return nil
}

func printChangeset[T any](cs validation.Changeset[T], fields map[string]any) error {
	if viper.GetBool("json") {
		return printJSON(map[string]any{
			"record": cs.Record,
			"valid":  cs.Valid(),
			"mode":   cs.Mode.String(),
			"errors": cs.Errors.ByField(),
		})
	}
	fmt.Printf("Mode: %s\n", cs.Mode)
	tw := newTable()
	appendFields(tw, fields)
	tw.Render()
	if cs.Valid() {
		fmt.Println("Valid: yes")
		return nil
	}
	fmt.Println("Valid: no")
	for _, e := range cs.Errors {
		fmt.Printf("  - %s %s\n", e.Field, e.Message)
	}
	return nil
}

func printEventTree(node engine.EventNode, prefix string, last, root bool) {
	label := fmt.Sprintf("%s %s [%s] %s", node.Kind, node.ID, node.Status, window(node.StartTime, node.EndTime))
	childPrefix := prefix
	if root {
		fmt.Println(label)
	} else {
		connector := "├── "
		childPrefix = prefix + "│   "
		if last {
			connector = "└── "
			childPrefix = prefix + "    "
		}
		fmt.Printf("%s%s%s\n", prefix, connector, label)
	}
	for i, c := range node.Children {
		printEventTree(c, childPrefix, i == len(node.Children)-1, false)
	}
}

func appendFields(tw table.Writer, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tw.AppendRow(table.Row{k, fields[k]})
	}
}

func window(start, end *time.Time) string {
	return temporal.FormatPtr(start) + " .. " + temporal.FormatPtr(end)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
