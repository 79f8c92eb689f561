package def

import "github.com/bwmarrin/discordgo"

var AddEntryCommand = &discordgo.ApplicationCommand{
	Name:        "addentry",
	Description: "Add your service to the catalog",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "link",
			Description: "Link to your profile or channel",
			Required:    true,
		},
	},
}

var ReviewCommand = &discordgo.ApplicationCommand{
	Name:        "review",
	Description: "Rate a catalog listing",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "number",
			Description: "The listing's catalog number",
			Required:    true,
		},
	},
}
