package handler

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

var (
	commandHandlers   = make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate))
	componentHandlers = make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate))
	modalHandlers     = make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate))
)

// AddCommandHandler registers a handler for a slash command.
func AddCommandHandler(name string, handler func(s *discordgo.Session, i *discordgo.InteractionCreate)) {
	commandHandlers[name] = handler
}

// AddComponentHandler registers a handler for a message component, keyed by
// the custom-ID prefix before the first colon.
func AddComponentHandler(customID string, handler func(s *discordgo.Session, i *discordgo.InteractionCreate)) {
	componentHandlers[customID] = handler
}

// AddModalHandler registers a handler for a modal submission, keyed by the
// custom-ID prefix before the first colon.
func AddModalHandler(customID string, handler func(s *discordgo.Session, i *discordgo.InteractionCreate)) {
	modalHandlers[customID] = handler
}

// OnInteractionCreate is the main interaction router.
// It should be registered as the primary interaction handler in bot setup.
func OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if handler, ok := commandHandlers[i.ApplicationCommandData().Name]; ok {
			handler(s, i)
		}
	case discordgo.InteractionMessageComponent:
		key := prefixOf(i.MessageComponentData().CustomID)
		if handler, ok := componentHandlers[key]; ok {
			handler(s, i)
		}
	case discordgo.InteractionModalSubmit:
		key := prefixOf(i.ModalSubmitData().CustomID)
		if handler, ok := modalHandlers[key]; ok {
			handler(s, i)
		}
	}
}

func prefixOf(customID string) string {
	parts := strings.SplitN(customID, ":", 2)
	return parts[0]
}
