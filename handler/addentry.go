package handler

import (
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/lavrelin/offtrix-sub000/catalog"
)

// AddEntryCommandHandler starts the guided add-entry flow from a link.
func AddEntryCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if !deps.Limiter.CheckGlobalBurst(userID) {
		ephemeral(s, i, "Slow down a little, then try again.")
		return
	}
	deps.Limiter.SetGlobalBurst(userID, deps.Burst)

	var link string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "link" {
			link = opt.StringValue()
		}
	}

	if _, err := deps.Engine.StartDraft(userID, link); err != nil {
		var invalid *catalog.ValidationError
		if errors.As(err, &invalid) {
			ephemeral(s, i, "Invalid link: "+invalid.Reason)
			return
		}
		ephemeral(s, i, "Could not start the listing, please try again later.")
		return
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    "Link saved. Next: category and name.",
			Components: draftButtons("details"),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

// DraftComponentHandler advances or cancels the guided flow.
func DraftComponentHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	parts := splitCustomID(i.MessageComponentData().CustomID)
	if len(parts) != 2 {
		return
	}

	switch parts[1] {
	case "cancel":
		deps.Engine.CancelDraft(userID)
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    "Listing cancelled. Nothing was saved.",
				Components: []discordgo.MessageComponent{},
			},
		})
	case "details":
		openDraftModal(s, i, "draft_details", "Listing details", []discordgo.MessageComponent{
			draftInputRow("category", "Category", 64, true),
			draftInputRow("name", "Name", 255, true),
		})
	case "media":
		openDraftModal(s, i, "draft_media", "Import media", []discordgo.MessageComponent{
			draftInputRow("link", "Message link with a photo", 200, true),
		})
	case "skip":
		if err := deps.Engine.SkipMedia(userID); err != nil {
			draftStepError(s, i, err)
			return
		}
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    "No media attached. Last step: tags.",
				Components: draftButtons("tags"),
			},
		})
	case "tags":
		openDraftModal(s, i, "draft_tags", "Tags", []discordgo.MessageComponent{
			draftInputRow("tags", "Tags (comma separated, up to 10)", 350, false),
		})
	case "commit":
		entry, err := deps.Engine.CommitDraft(userID)
		if err != nil {
			draftStepError(s, i, err)
			return
		}
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    fmt.Sprintf("Listing published as #%d — %s.", entry.Number, entry.Name),
				Components: []discordgo.MessageComponent{},
			},
		})
	}
}

// DraftDetailsModalHandler records category and name.
func DraftDetailsModalHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	userID := interactionUserID(i)

	if err := deps.Engine.DraftCategory(userID, modalValue(data, "category")); err != nil {
		draftStepError(s, i, err)
		return
	}
	if err := deps.Engine.DraftName(userID, modalValue(data, "name")); err != nil {
		draftStepError(s, i, err)
		return
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    "Details saved. Attach media from a message link, or skip.",
			Components: draftMediaButtons(),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

// DraftMediaModalHandler imports media via fetch-and-discard.
func DraftMediaModalHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	userID := interactionUserID(i)

	err := deps.Engine.DraftImportMedia(userID, modalValue(data, "link"))
	if err != nil {
		// Media import failures are non-fatal; the flow continues without media.
		var content string
		switch {
		case errors.Is(err, catalog.ErrNoMedia):
			content = "That message has no media. Attach another link or skip."
		case errors.Is(err, catalog.ErrMediaInaccessible):
			content = "Couldn't read that message. Attach another link or skip."
		default:
			draftStepError(s, i, err)
			return
		}
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:    content,
				Components: draftMediaButtons(),
				Flags:      discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    "Media attached. Last step: tags.",
			Components: draftButtons("tags"),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

// DraftTagsModalHandler records tags and offers the final commit.
func DraftTagsModalHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	userID := interactionUserID(i)

	if err := deps.Engine.DraftTags(userID, splitList(modalValue(data, "tags"))); err != nil {
		draftStepError(s, i, err)
		return
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    "All set. Publish the listing?",
			Components: draftButtons("commit"),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

func draftStepError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	var invalid *catalog.ValidationError
	switch {
	case errors.Is(err, catalog.ErrNoDraft):
		ephemeral(s, i, "Your draft expired. Start over with /addentry.")
	case errors.As(err, &invalid):
		ephemeral(s, i, "Invalid input: "+invalid.Reason)
	default:
		log.Printf("Draft step failed: %v", err)
		ephemeral(s, i, "Something went wrong, please try again later.")
	}
}

func draftInputRow(customID, label string, maxLen int, required bool) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:  customID,
				Label:     label,
				Style:     discordgo.TextInputShort,
				Required:  required,
				MaxLength: maxLen,
			},
		},
	}
}

func openDraftModal(s *discordgo.Session, i *discordgo.InteractionCreate, customID, title string, rows []discordgo.MessageComponent) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	})
	if err != nil {
		log.Printf("Error creating %s modal: %v", customID, err)
	}
}

func draftButtons(next string) []discordgo.MessageComponent {
	labels := map[string]string{
		"details": "Continue",
		"tags":    "Add tags",
		"commit":  "Publish",
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    labels[next],
					Style:    discordgo.SuccessButton,
					CustomID: "draft:" + next,
					Emoji:    &discordgo.ComponentEmoji{Name: "✅"},
				},
				discordgo.Button{
					Label:    "Cancel",
					Style:    discordgo.DangerButton,
					CustomID: "draft:cancel",
					Emoji:    &discordgo.ComponentEmoji{Name: "❌"},
				},
			},
		},
	}
}

func draftMediaButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Attach media",
					Style:    discordgo.PrimaryButton,
					CustomID: "draft:media",
					Emoji:    &discordgo.ComponentEmoji{Name: "🖼️"},
				},
				discordgo.Button{
					Label:    "Skip",
					Style:    discordgo.SecondaryButton,
					CustomID: "draft:skip",
				},
				discordgo.Button{
					Label:    "Cancel",
					Style:    discordgo.DangerButton,
					CustomID: "draft:cancel",
					Emoji:    &discordgo.ComponentEmoji{Name: "❌"},
				},
			},
		},
	}
}
