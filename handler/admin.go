package handler

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/lavrelin/offtrix-sub000/submission"
	"github.com/lavrelin/offtrix-sub000/utils"
)

// ModerateHandler handles the approve/reject buttons on moderation cards.
func ModerateHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if !utils.CheckAuth(userID, memberRoles(i)) {
		ephemeral(s, i, "You are not allowed to moderate submissions.")
		return
	}

	parts := splitCustomID(i.MessageComponentData().CustomID)
	if len(parts) != 3 {
		return
	}
	action, submissionID := parts[1], parts[2]

	switch action {
	case "approve":
		err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		})
		if err != nil {
			log.Printf("Error sending deferred response: %v", err)
			return
		}
		go func() {
			if err := deps.Pipeline.Approve(userID, submissionID); err != nil {
				logModerationError("approve", submissionID, err)
			}
		}()
	case "reject":
		// Ask for the reason before deciding anything.
		err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseModal,
			Data: &discordgo.InteractionResponseData{
				CustomID: "modreject:" + submissionID,
				Title:    "Rejection reason",
				Components: []discordgo.MessageComponent{
					discordgo.ActionsRow{
						Components: []discordgo.MessageComponent{
							discordgo.TextInput{
								CustomID:    "reason",
								Label:       "Why is this submission rejected?",
								Style:       discordgo.TextInputParagraph,
								Placeholder: "Shown to the submitter",
								Required:    true,
								MinLength:   8,
								MaxLength:   256,
							},
						},
					},
				},
			},
		})
		if err != nil {
			log.Printf("Error responding with modal: %v", err)
		}
	}
}

// ModerateRejectModalHandler finishes a rejection with its reason.
func ModerateRejectModalHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	userID := interactionUserID(i)

	parts := splitCustomID(data.CustomID)
	if len(parts) != 2 {
		return
	}
	submissionID := parts[1]
	reason := modalValue(data, "reason")

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Printf("Error sending deferred response: %v", err)
		return
	}

	go func() {
		if err := deps.Pipeline.Reject(userID, submissionID, reason); err != nil {
			logModerationError("reject", submissionID, err)
		}
	}()
}

// ModQueueCommandHandler lists the submissions still waiting for a decision.
func ModQueueCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if !utils.CheckAuth(userID, memberRoles(i)) {
		ephemeral(s, i, "You are not allowed to view the moderation queue.")
		return
	}

	limit := 10
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "limit" {
			limit = int(opt.IntValue())
		}
	}

	queue, err := deps.Pipeline.Pending(userID, limit)
	if err != nil {
		log.Printf("Failed to list pending submissions: %v", err)
		ephemeral(s, i, "Could not load the queue, try again later.")
		return
	}
	if len(queue) == 0 {
		ephemeral(s, i, "The moderation queue is empty.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%d pending submission(s):**\n", len(queue))
	for _, sub := range queue {
		author := "<@" + sub.UserID + ">"
		if sub.IsAnonymous {
			author = "anonymous"
		}
		fmt.Fprintf(&b, "`%s` by %s in %s: %s\n", sub.ID, author, sub.Category, truncate(sub.Text, 60))
	}
	ephemeral(s, i, b.String())
}

// ResetCooldownCommandHandler is the administrative cooldown override.
func ResetCooldownCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if !utils.CheckAuth(userID, memberRoles(i)) {
		ephemeral(s, i, "You are not allowed to reset cooldowns.")
		return
	}

	var (
		target string
		action string
	)
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "user":
			target = opt.UserValue(nil).ID
		case "action":
			action = opt.StringValue()
		}
	}
	if target == "" {
		ephemeral(s, i, "Pick a user to reset.")
		return
	}

	deps.Limiter.Reset(target, action)
	if action == "" {
		ephemeral(s, i, fmt.Sprintf("All cooldowns cleared for <@%s>.", target))
	} else {
		ephemeral(s, i, fmt.Sprintf("Cooldown %q cleared for <@%s>.", action, target))
	}
}

func logModerationError(action, submissionID string, err error) {
	switch {
	case errors.Is(err, submission.ErrNotFound):
		log.Printf("Moderation %s: submission %s not found", action, submissionID)
	case errors.Is(err, submission.ErrNotPermitted):
		log.Printf("Moderation %s: actor not permitted for %s", action, submissionID)
	default:
		log.Printf("Moderation %s failed for %s: %v", action, submissionID, err)
	}
}
