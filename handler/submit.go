package handler

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/lavrelin/offtrix-sub000/submission"
)

// SubmitCommandHandler opens the submission modal, after the burst guard.
func SubmitCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if !deps.Limiter.CheckGlobalBurst(userID) {
		ephemeral(s, i, "Slow down a little, then try again.")
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: "submit_modal",
			Title:    "New submission",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "category",
							Label:       "Category",
							Style:       discordgo.TextInputShort,
							Placeholder: "e.g. services / events / market",
							Required:    true,
							MaxLength:   64,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  "body",
							Label:     "Content",
							Style:     discordgo.TextInputParagraph,
							Required:  true,
							MaxLength: 4000,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "hashtags",
							Label:       "Hashtags (comma separated)",
							Style:       discordgo.TextInputShort,
							Placeholder: "optional",
							Required:    false,
							MaxLength:   200,
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.Printf("Error creating submit modal: %v", err)
	}
}

// SubmitModalHandler runs the submission through the pipeline.
func SubmitModalHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	userID := interactionUserID(i)

	deps.Limiter.SetGlobalBurst(userID, deps.Burst)

	in := submission.Input{
		Category: modalValue(data, "category"),
		Text:     modalValue(data, "body"),
		Hashtags: splitList(modalValue(data, "hashtags")),
	}

	sub, err := deps.Pipeline.Submit(userID, in)
	if err != nil {
		var limited *submission.RateLimitedError
		var invalid *submission.ValidationError
		switch {
		case errors.As(err, &limited):
			ephemeral(s, i, fmt.Sprintf("You can submit again in %s.", limited.Remaining.Round(time.Second)))
		case errors.As(err, &invalid):
			ephemeral(s, i, "Invalid input: "+invalid.Reason)
		case errors.Is(err, submission.ErrStoreUnavailable):
			ephemeral(s, i, "Storage is unavailable right now, please try again later.")
		default:
			log.Printf("Submit failed for user %s: %v", userID, err)
			ephemeral(s, i, "Something went wrong, please try again later.")
		}
		return
	}

	ephemeral(s, i, fmt.Sprintf("Submission %s sent to moderation. You'll hear back soon.", sub.ID))
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimPrefix(p, "#"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
