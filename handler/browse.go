package handler

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/lavrelin/offtrix-sub000/catalog"
	"github.com/lavrelin/offtrix-sub000/model"
)

// BrowseCommandHandler starts (or continues) a browsing session and shows
// the first page.
func BrowseCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if !deps.Limiter.CheckGlobalBurst(userID) {
		ephemeral(s, i, "Slow down a little, then try again.")
		return
	}
	deps.Limiter.SetGlobalBurst(userID, deps.Burst)

	respondWithPage(s, i, userID, false)
}

// BrowseComponentHandler handles the next/stop buttons under a page.
func BrowseComponentHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	parts := strings.Split(i.MessageComponentData().CustomID, ":")
	if len(parts) != 2 {
		return
	}

	switch parts[1] {
	case "next":
		respondWithPage(s, i, userID, true)
	case "stop":
		deps.Engine.EndSession(userID)
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    "Session ended. /browse starts a fresh one.",
				Embeds:     []*discordgo.MessageEmbed{},
				Components: []discordgo.MessageComponent{},
			},
		})
	}
}

// VisitHandler records a click-through and hands out the entry's link.
func VisitHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	parts := strings.Split(i.MessageComponentData().CustomID, ":")
	if len(parts) != 2 {
		return
	}
	entryID := parts[1]

	entry, err := deps.Engine.Entry(entryID)
	if err != nil {
		ephemeral(s, i, "This listing is no longer available.")
		return
	}

	deps.Engine.RecordClick(entryID)
	ephemeral(s, i, entry.Link)
}

// SearchCommandHandler matches entries by keyword without touching the session.
func SearchCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if !deps.Limiter.CheckGlobalBurst(userID) {
		ephemeral(s, i, "Slow down a little, then try again.")
		return
	}
	deps.Limiter.SetGlobalBurst(userID, deps.Burst)

	query := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	entries, err := deps.Engine.Search(query, deps.PageSize)
	if err != nil {
		var invalid *catalog.ValidationError
		if errors.As(err, &invalid) {
			ephemeral(s, i, "Invalid query: "+invalid.Reason)
			return
		}
		log.Printf("Search failed: %v", err)
		ephemeral(s, i, "Search is unavailable right now, please try again later.")
		return
	}
	if len(entries) == 0 {
		ephemeral(s, i, "Nothing matched. Try another keyword.")
		return
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     entryEmbeds(entries),
			Components: visitButtons(entries),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondWithPage(s *discordgo.Session, i *discordgo.InteractionCreate, userID string, update bool) {
	entries, err := deps.Engine.Sample(userID, deps.PageSize)
	if err != nil {
		log.Printf("Sample failed for user %s: %v", userID, err)
		ephemeral(s, i, "Browsing is unavailable right now, please try again later.")
		return
	}

	responseType := discordgo.InteractionResponseChannelMessageWithSource
	if update {
		responseType = discordgo.InteractionResponseUpdateMessage
	}

	if len(entries) == 0 {
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: responseType,
			Data: &discordgo.InteractionResponseData{
				Content:    "You've seen everything for now. Stop the session to start over.",
				Embeds:     []*discordgo.MessageEmbed{},
				Components: pageButtons(),
				Flags:      discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}

	components := visitButtons(entries)
	components = append(components, pageButtons()...)

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: responseType,
		Data: &discordgo.InteractionResponseData{
			Embeds:     entryEmbeds(entries),
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

func entryEmbeds(entries []*model.CatalogEntry) []*discordgo.MessageEmbed {
	embeds := make([]*discordgo.MessageEmbed, 0, len(entries))
	for _, entry := range entries {
		rating, count, err := deps.Engine.Rating(entry.ID)
		if err != nil {
			rating, count = "—", 0
		}

		desc := fmt.Sprintf("**Category:** %s\n**Rating:** %s (%d)", entry.Category, rating, count)
		if len(entry.Tags) > 0 {
			desc += "\n**Tags:** " + strings.Join(entry.Tags, ", ")
		}
		if reviews, rerr := deps.Engine.Reviews(entry.ID, 1); rerr == nil && len(reviews) > 0 && reviews[0].Text != "" {
			desc += "\n**Latest review:** " + truncate(reviews[0].Text, 100)
		}

		embed := &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("#%d %s", entry.Number, entry.Name),
			Description: desc,
			Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("No. %d", entry.Number)},
		}
		if entry.IsAd {
			embed.Color = 0xFFA500
			embed.Footer.Text += " • sponsored"
		}
		if entry.Media != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: entry.Media}
		}
		embeds = append(embeds, embed)
	}
	return embeds
}

func visitButtons(entries []*model.CatalogEntry) []discordgo.MessageComponent {
	row := discordgo.ActionsRow{}
	for _, entry := range entries {
		if len(row.Components) == 5 {
			break
		}
		row.Components = append(row.Components, discordgo.Button{
			Label:    fmt.Sprintf("#%d", entry.Number),
			Style:    discordgo.SecondaryButton,
			CustomID: "visit:" + entry.ID,
		})
	}
	if len(row.Components) == 0 {
		return nil
	}
	return []discordgo.MessageComponent{row}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

func pageButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Next",
					Style:    discordgo.PrimaryButton,
					CustomID: "browse:next",
					Emoji:    &discordgo.ComponentEmoji{Name: "➡️"},
				},
				discordgo.Button{
					Label:    "Stop",
					Style:    discordgo.SecondaryButton,
					CustomID: "browse:stop",
					Emoji:    &discordgo.ComponentEmoji{Name: "🛑"},
				},
			},
		},
	}
}
