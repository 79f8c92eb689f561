package def

import "github.com/bwmarrin/discordgo"

var SubmitCommand = &discordgo.ApplicationCommand{
	Name:        "submit",
	Description: "Submit content for moderation",
}

var BrowseCommand = &discordgo.ApplicationCommand{
	Name:        "browse",
	Description: "Browse the service catalog",
}

var SearchCommand = &discordgo.ApplicationCommand{
	Name:        "search",
	Description: "Search the catalog by keyword",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "query",
			Description: "Keyword to match against names, categories and tags",
			Required:    true,
		},
	},
}
