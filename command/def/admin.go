package def

import "github.com/bwmarrin/discordgo"

var ModQueueCommand = &discordgo.ApplicationCommand{
	Name:        "modqueue",
	Description: "Show submissions waiting for a decision (admin)",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "limit",
			Description: "How many to show (default: 10)",
			Required:    false,
		},
	},
}

var CooldownResetCommand = &discordgo.ApplicationCommand{
	Name:        "cooldownreset",
	Description: "Clear a user's cooldowns (admin)",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "The user to reset",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "action",
			Description: "A single action to clear (default: all)",
			Required:    false,
		},
	},
}
