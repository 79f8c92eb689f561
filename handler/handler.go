// Package handler maps Discord interactions onto the core operations:
// submit content, browse and search the catalog, rate entries, moderate
// submissions and reset cooldowns.
package handler

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/lavrelin/offtrix-sub000/catalog"
	"github.com/lavrelin/offtrix-sub000/ratelimit"
	"github.com/lavrelin/offtrix-sub000/submission"
)

// Deps bundles the core components the handlers call into.
type Deps struct {
	Engine   *catalog.Engine
	Pipeline *submission.Pipeline
	Limiter  *ratelimit.Limiter
	Burst    time.Duration
	PageSize int
}

var deps *Deps

// Register wires the handlers to their routes. Call once during bootstrap.
func Register(d *Deps) {
	deps = d

	AddCommandHandler("submit", SubmitCommandHandler)
	AddCommandHandler("browse", BrowseCommandHandler)
	AddCommandHandler("search", SearchCommandHandler)
	AddCommandHandler("addentry", AddEntryCommandHandler)
	AddCommandHandler("review", ReviewCommandHandler)
	AddCommandHandler("modqueue", ModQueueCommandHandler)
	AddCommandHandler("cooldownreset", ResetCooldownCommandHandler)

	AddComponentHandler("browse", BrowseComponentHandler)
	AddComponentHandler("visit", VisitHandler)
	AddComponentHandler("moderate", ModerateHandler)
	AddComponentHandler("draft", DraftComponentHandler)

	AddModalHandler("submit_modal", SubmitModalHandler)
	AddModalHandler("review_modal", ReviewModalHandler)
	AddModalHandler("draft_details", DraftDetailsModalHandler)
	AddModalHandler("draft_media", DraftMediaModalHandler)
	AddModalHandler("draft_tags", DraftTagsModalHandler)
	AddModalHandler("modreject", ModerateRejectModalHandler)
}

// interactionUserID returns the acting user for guild and DM interactions.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// memberRoles returns the acting member's roles, empty outside guilds.
func memberRoles(i *discordgo.InteractionCreate) []string {
	if i.Member != nil {
		return i.Member.Roles
	}
	return nil
}

// ephemeral sends a short, only-for-you reply.
func ephemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// splitCustomID splits a routed custom ID on colons.
func splitCustomID(customID string) []string {
	return strings.Split(customID, ":")
}

// modalValue digs a text-input value out of submitted modal components.
func modalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, component := range data.Components {
		row, ok := component.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range row.Components {
			if input, ok := comp.(*discordgo.TextInput); ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}
