package core

import (
	"strings"
)

// ChangeAction names the kind of catalog mutation a change note records.
type ChangeAction string

const (
	ChangeAdd    ChangeAction = "Add"
	ChangeUpdate ChangeAction = "Update"
	ChangeDelete ChangeAction = "Delete"
)

// DefaultActor is recorded as the author of admin panel changes.
const DefaultActor = "admin"

var actorVerb = map[ChangeAction]string{
	ChangeAdd:    "Added",
	ChangeUpdate: "Updated",
	ChangeDelete: "Deleted",
}

// ChangeNote builds the description stored with each catalog version:
//
//	<Action> product: <name> (via admin panel)
//
//	<Verb> by: <actor>
//	Product ID: <id>
func ChangeNote(action ChangeAction, p Product, actor string) string {
	if actor == "" {
		actor = DefaultActor
	}

	var sb strings.Builder

	// Subject
	sb.WriteString(string(action))
	sb.WriteString(" product: ")
	sb.WriteString(strings.TrimSpace(p.Name))
	sb.WriteString(" (via admin panel)")

	// Trailers
	sb.WriteString("\n\n")
	sb.WriteString(actorVerb[action])
	sb.WriteString(" by: ")
	sb.WriteString(actor)
	sb.WriteString("\nProduct ID: ")
	sb.WriteString(p.ID)

	return sb.String()
}

// Subject returns the first line of a change note.
func Subject(note string) string {
	subject, _, _ := strings.Cut(note, "\n")
	return subject
}
