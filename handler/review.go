package handler

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/lavrelin/offtrix-sub000/catalog"
)

// ReviewCommandHandler opens the rating modal for a catalog number.
func ReviewCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if !deps.Limiter.CheckGlobalBurst(userID) {
		ephemeral(s, i, "Slow down a little, then try again.")
		return
	}
	deps.Limiter.SetGlobalBurst(userID, deps.Burst)

	var number int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "number" {
			number = int(opt.IntValue())
		}
	}

	entry, err := deps.Engine.EntryByNumber(number)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			ephemeral(s, i, fmt.Sprintf("No listing with number %d.", number))
			return
		}
		ephemeral(s, i, "Listings are unavailable right now, please try again later.")
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: "review_modal:" + entry.ID,
			Title:    "Review " + entry.Name,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "rating",
							Label:       "Rating (1-5)",
							Style:       discordgo.TextInputShort,
							Placeholder: "5",
							Required:    true,
							MaxLength:   1,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  "body",
							Label:     "Your experience",
							Style:     discordgo.TextInputParagraph,
							Required:  false,
							MaxLength: 1000,
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.Printf("Error creating review modal: %v", err)
	}
}

// ReviewModalHandler stores the review via the engine.
func ReviewModalHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	userID := interactionUserID(i)

	parts := splitCustomID(data.CustomID)
	if len(parts) != 2 {
		return
	}
	entryID := parts[1]

	rating, err := strconv.Atoi(modalValue(data, "rating"))
	if err != nil {
		ephemeral(s, i, "Rating must be a number from 1 to 5.")
		return
	}

	_, err = deps.Engine.AddReview(userID, entryID, rating, modalValue(data, "body"))
	if err != nil {
		var rejected *catalog.ReviewRejectedError
		var invalid *catalog.ValidationError
		switch {
		case errors.As(err, &rejected) && rejected.Reason == catalog.RejectDuplicate:
			ephemeral(s, i, "You already reviewed this listing.")
		case errors.As(err, &rejected):
			ephemeral(s, i, fmt.Sprintf("You can leave the next review in %s.", rejected.Remaining.Round(time.Second)))
		case errors.As(err, &invalid):
			ephemeral(s, i, "Invalid input: "+invalid.Reason)
		case errors.Is(err, catalog.ErrNotFound):
			ephemeral(s, i, "This listing is no longer available.")
		default:
			log.Printf("Review failed for user %s: %v", userID, err)
			ephemeral(s, i, "Something went wrong, please try again later.")
		}
		return
	}

	value, count, ratingErr := deps.Engine.Rating(entryID)
	if ratingErr != nil {
		ephemeral(s, i, "Thanks, your review is in!")
		return
	}
	ephemeral(s, i, fmt.Sprintf("Thanks! Current rating: %s (%d)", value, count))
}
