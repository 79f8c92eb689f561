package command

import (
	"github.com/lavrelin/offtrix-sub000/command/def"

	"github.com/bwmarrin/discordgo"
)

// AllCommands contains all of the commands
var AllCommands = []*discordgo.ApplicationCommand{
	def.SubmitCommand,
	def.BrowseCommand,
	def.SearchCommand,
	def.AddEntryCommand,
	def.ReviewCommand,
	def.ModQueueCommand,
	def.CooldownResetCommand,
}
