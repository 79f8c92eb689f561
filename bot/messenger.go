package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/lavrelin/offtrix-sub000/model"
)

// Messenger adapts a discordgo session to the messenger and platform
// interfaces consumed by the core packages. Presentation stays here; the
// core only sees capabilities.
type Messenger struct {
	s                *discordgo.Session
	reviewChannelID  string
	publishChannelID string
	scratchChannelID string
}

// NewMessenger wires the session to the configured channels.
func NewMessenger(s *discordgo.Session, reviewChannelID, publishChannelID, scratchChannelID string) *Messenger {
	return &Messenger{
		s:                s,
		reviewChannelID:  reviewChannelID,
		publishChannelID: publishChannelID,
		scratchChannelID: scratchChannelID,
	}
}

func submissionEmbed(sub *model.Submission, color int, title string) *discordgo.MessageEmbed {
	author := fmt.Sprintf("<@%s>", sub.UserID)
	if sub.IsAnonymous {
		author = "anonymous"
	}
	desc := fmt.Sprintf("**Author:** %s\n**Category:** %s", author, sub.Category)
	if sub.Subcategory != "" {
		desc += " / " + sub.Subcategory
	}
	desc += "\n\n" + sub.Text
	if len(sub.Hashtags) > 0 {
		desc += "\n\n#" + strings.Join(sub.Hashtags, " #")
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: desc,
		Color:       color,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "ID: " + sub.ID,
		},
	}
	if len(sub.Media) > 0 {
		embed.Image = &discordgo.MessageEmbedImage{URL: sub.Media[0]}
	}
	return embed
}

func moderationButtons(submissionID string, disabled bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Approve",
					Style:    discordgo.SuccessButton,
					CustomID: "moderate:approve:" + submissionID,
					Emoji:    &discordgo.ComponentEmoji{Name: "✅"},
					Disabled: disabled,
				},
				discordgo.Button{
					Label:    "Reject",
					Style:    discordgo.DangerButton,
					CustomID: "moderate:reject:" + submissionID,
					Emoji:    &discordgo.ComponentEmoji{Name: "❌"},
					Disabled: disabled,
				},
			},
		},
	}
}

// SendModerationCard posts the submission to the review channel with
// approve/reject controls and returns the card's message id.
func (m *Messenger) SendModerationCard(sub *model.Submission) (string, error) {
	if m.reviewChannelID == "" {
		return "", errors.New("review channel not configured")
	}
	msg, err := m.s.ChannelMessageSendComplex(m.reviewChannelID, &discordgo.MessageSend{
		Embed:      submissionEmbed(sub, 0xFFFF00, "New submission pending review"),
		Components: moderationButtons(sub.ID, false),
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// EditModerationCard rewrites the card in place to reflect the decision and
// disables the buttons.
func (m *Messenger) EditModerationCard(ref string, sub *model.Submission) error {
	color, title := 0x00FF00, "Submission approved"
	if sub.Status == model.StatusRejected {
		color, title = 0xFF0000, "Submission rejected"
	}
	embed := submissionEmbed(sub, color, title)
	if sub.RejectReason != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Reason",
			Value: sub.RejectReason,
		})
	}
	components := moderationButtons(sub.ID, true)
	_, err := m.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    m.reviewChannelID,
		ID:         ref,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	return err
}

// Publish posts the approved submission to the target channel.
func (m *Messenger) Publish(sub *model.Submission) error {
	if m.publishChannelID == "" {
		return errors.New("publish channel not configured")
	}
	_, err := m.s.ChannelMessageSendEmbed(m.publishChannelID, submissionEmbed(sub, 0x00BFFF, "New post"))
	return err
}

// NotifySubmitter DMs the submitter about the rejection.
func (m *Messenger) NotifySubmitter(sub *model.Submission) error {
	channel, err := m.s.UserChannelCreate(sub.UserID)
	if err != nil {
		return err
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Your submission was not approved",
		Description: "Unfortunately, your submission did not pass review.",
		Color:       0xFF0000,
	}
	if sub.RejectReason != "" {
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:  "Reason",
			Value: sub.RejectReason,
		}}
	}
	_, err = m.s.ChannelMessageSendEmbed(channel.ID, embed)
	return err
}

var messageLinkRe = regexp.MustCompile(`https://discord(?:app)?\.com/channels/\d+/(\d+)/(\d+)`)

// ResolveLink 解析Discord消息链接
func (m *Messenger) ResolveLink(link string) (string, string, error) {
	matches := messageLinkRe.FindStringSubmatch(link)
	if len(matches) != 3 {
		return "", "", errors.New("invalid message link format")
	}
	return matches[1], matches[2], nil
}

// ForwardMessage copies the linked message's media into the scratch channel
// and reports the copy id plus the media reference found on it.
func (m *Messenger) ForwardMessage(chatID, messageID string) (string, string, error) {
	msg, err := m.s.ChannelMessage(chatID, messageID)
	if err != nil {
		return "", "", fmt.Errorf("cannot fetch message: %w", err)
	}

	var mediaRef string
	if len(msg.Attachments) > 0 {
		mediaRef = msg.Attachments[0].URL
	} else if len(msg.Embeds) > 0 && msg.Embeds[0].Image != nil {
		mediaRef = msg.Embeds[0].Image.URL
	}
	if mediaRef == "" {
		return "", "", nil
	}

	fwd, err := m.s.ChannelMessageSend(m.scratchChannelID, mediaRef)
	if err != nil {
		return "", "", fmt.Errorf("cannot forward to working area: %w", err)
	}
	return fwd.ID, mediaRef, nil
}

// DeleteMessage removes a forwarded copy from the scratch channel.
func (m *Messenger) DeleteMessage(messageID string) error {
	return m.s.ChannelMessageDelete(m.scratchChannelID, messageID)
}
