package bot

import (
	"github.com/lavrelin/offtrix-sub000/handler"

	"github.com/bwmarrin/discordgo"
)

func registerEventHandlers(s *discordgo.Session) {
	s.AddHandler(handler.OnInteractionCreate)

	// 设置必要的intents
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsGuildMembers
}
